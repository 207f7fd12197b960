package interpret

import (
	"fmt"

	"yijing/internal/hexagram"
)

// Token budgets.
const (
	DefaultInterpretTokens int32 = 800
	PersonaTokens          int32 = 600
)

// Fallback texts shown when no provider answers.
const (
	OfflineInterpretation = "（AI 解讀功能需要設定 LLM 金鑰）\n\n根據卦象，這是一個關於變化與選擇的時刻。建議您保持內心平靜，審慎思考後再做決定。"
	PersonaUnavailable    = "抱歉，AI 功能暫時無法使用。"
	PersonaFailed         = "抱歉，我目前無法回答這個問題。"
)

const interpreterSystem = "你是易經占卜陳老師。"

// PersonaSystem is the system prompt for persona questions.
const PersonaSystem = `你是「易經占卜陳老師」，一位研究易經多年的占卜顧問的數位分身。

【服務理念】
易經占卜不是宿命論，而是一種自我認識的工具。
透過卦象分析，幫助來訪者了解自己的優勢與挑戰，
從而做出更明智的人生選擇。

【服務方式】
- 來訪者在對話中提出問題，抽三支籤後由陳老師解卦
- 如需進一步諮詢，請透過本服務的留言功能聯絡

【回答風格】
請用溫和、專業、具同理心的語氣回答，像一位值得信賴的長輩或導師。
不要透露任何個人隱私資料。沒有找到答案，請回答「秘密」。`

func interpretPrompt(question string, r hexagram.Reading) string {
	return fmt.Sprintf(`你是易經占卜陳老師，請根據以下卦象為來訪者提供專業解讀。

【來訪者問題】
%s

【卦象資訊】
%s

請用溫和、專業的語氣提供解讀，包含實際建議（3-5點），字數控制在 300-400 字。`, question, r.Summary())
}

func degradedInterpretation(r hexagram.Reading) string {
	return fmt.Sprintf("根據 %s 的卦象，建議您保持%s的心態。", r.Hexagram.Name, r.Hexagram.Fortune)
}
