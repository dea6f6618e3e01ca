package engine

import (
	"strings"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

const promptIntro = `あなたは親切で会話的、論理的に説明できる学校食堂のAIアシスタントです。自然で流暢な会話を心がけてください。

主な役割：
- メニュー、営業時間、予約について質問に答える
- アレルギー情報について質問に答える（アレルギー情報は以下を参照）
- 学習のお手伝いとして数学、理科、英語などの教育関連の質問にも親切に答える
- 一般的な質問や雑談にも自然に対応する`

const promptStyle = `回答のスタイル：
- 明確で、例を入れつつ、過剰に長くしすぎない
- ユーザーの発言意図を汲み取り、文脈を理解して自然な会話を続ける
- 宿題の完全な答えを提供するのではなく、学習のヒントや解説を提供する
- 親切で丁寧、かつ自然な口調で対応する
- 必要に応じて「何か他に手伝えることはありますか？」で締める（毎回ではない）
- 同じ質問でも、会話の文脈に応じて異なる表現で答える`

// SystemPrompt builds the assistant instructions, embedding the allergy
// table so generated answers about allergens stay grounded.
func SystemPrompt(allergies []knowledge.AllergyItem) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n")

	if len(allergies) > 0 {
		b.WriteString("\n【アレルギー情報】\n")
		for _, item := range allergies {
			b.WriteString("- " + item.Menu + "：" + strings.Join(item.Allergens, "、") + "\n")
		}
		b.WriteString("\n※アレルギーに関する質問には、この情報を基に正確に回答してください。\n")
	}

	b.WriteString("\n")
	b.WriteString(promptStyle)
	return b.String()
}
