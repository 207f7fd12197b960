package interpret

import (
	"strings"

	"yijing/internal/types"
)

var (
	divinationKeywords = []string{"占卜", "算命", "運勢", "吉凶", "未來", "發展", "如何", "是否", "會不會"}
	personaKeywords    = []string{"陳老師", "你", "您", "介紹", "背景", "聯絡"}
)

// DetermineIntent decides how the backend answers a question. Questions
// scoring higher on divination keywords than persona keywords are
// divinations; otherwise any persona keyword makes it a persona question.
// Questions matching neither default to divination.
func DetermineIntent(question string) string {
	q := strings.ToLower(question)
	div := score(q, divinationKeywords)
	persona := score(q, personaKeywords)

	switch {
	case div > persona:
		return types.IntentDivination
	case persona > 0:
		return types.IntentPersona
	default:
		return types.IntentDivination
	}
}

func score(q string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			n++
		}
	}
	return n
}
