package hexagram

import (
	"fmt"
	"strings"
)

const (
	boxTop    = "╔═════════════════════════════════╗"
	boxTitle  = "║  🔮  易經占卜陳老師為您解卦  🔮 ║"
	boxBottom = "╚═════════════════════════════════╝"
	boxClose  = "╚═════════════════════════════════════════════════════╝"
	heavyRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

// Reminder closes every divination answer.
const Reminder = "💡 提醒：占卜是一種自我認識的工具，最終的決定權在您手中。"

// Format renders the divination answer box.
func Format(question string, r Reading, interpretation string) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(boxTop)
	line(boxTitle)
	line(boxBottom)
	line("")
	line("【您的問題】")
	line(question)
	line("")
	line("【起卦數字】")
	line(fmt.Sprintf("%d, %d, %d", r.Numbers[0], r.Numbers[1], r.Numbers[2]))
	line("")
	line("【卦象資訊】")
	line(heavyRule)
	line(fmt.Sprintf("本卦：第 %d 卦 - %s", r.Hexagram.Number, r.Hexagram.Name))
	line(fmt.Sprintf("上卦：%s %s （象徵%s）", r.Upper.Name, r.Upper.Symbol, r.Upper.Element))
	line(fmt.Sprintf("下卦：%s %s （象徵%s）", r.Lower.Name, r.Lower.Symbol, r.Lower.Element))
	line("")
	line("卦義：" + r.Hexagram.Meaning)
	line("運勢：" + r.Hexagram.Fortune)
	line(fmt.Sprintf("動爻：第 %d 爻", r.ChangingLine))
	line(heavyRule)
	line("")
	line("【陳老師解讀】")
	line(strings.TrimSpace(interpretation))
	line("")
	line(heavyRule)
	line(Reminder)
	line(boxClose)
	return b.String()
}
