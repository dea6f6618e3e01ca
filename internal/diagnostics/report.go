package diagnostics

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
	"github.com/ziadkadry99/cafeteria-ai/internal/markdown"
)

var displayNames = map[config.ProviderName]string{
	config.ProviderOpenAI:      "OpenAI",
	config.ProviderGemini:      "Gemini",
	config.ProviderGroq:        "Groq",
	config.ProviderHuggingFace: "Hugging Face",
	config.ProviderOllama:      "Ollama",
}

func displayName(name config.ProviderName) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return string(name)
}

func yesNo(b bool) string {
	if b {
		return "はい"
	}
	return "いいえ"
}

func check(b bool, yes, no string) string {
	if b {
		return "✅ " + yes
	}
	return "❌ " + no
}

// Line describes one provider for the report.
func (s ProviderStatus) Line() string {
	key := "未設定"
	if s.HasKey {
		key = "設定済み"
	}
	return fmt.Sprintf("%s (有効: %s, APIキー: %s, テスト: %s)", displayName(s.Name), yesNo(s.Enabled), key, s.Probe)
}

func attemptLine(a llm.Attempt) string {
	var b strings.Builder
	b.WriteString(a.Provider)
	b.WriteString(": ")
	b.WriteString(string(a.Outcome))
	if a.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d", a.StatusCode)
		if a.ErrorType != "" {
			b.WriteString(", " + a.ErrorType)
		}
		b.WriteString(")")
	}
	if a.LatencyMs > 0 {
		fmt.Fprintf(&b, " %dms", a.LatencyMs)
	}
	return b.String()
}

func (r Report) providerList() string {
	if len(r.Providers) == 0 {
		return "- なし\n"
	}
	var b strings.Builder
	for _, p := range r.Providers {
		b.WriteString("- " + p.Line() + "\n")
	}
	return b.String()
}

func (r Report) attemptList() string {
	if len(r.Attempts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**試行結果**:\n")
	for _, a := range r.Attempts {
		b.WriteString("- " + attemptLine(a) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Markdown renders the report as the chat answer.
func (r Report) Markdown() string {
	var b strings.Builder

	switch r.Kind {
	case KindAIDisabled:
		b.WriteString("❌ **AI APIが利用できません**\n\n")
		b.WriteString("設定状況:\n")
		b.WriteString("- AI API使用: " + check(r.UseAI, "有効", "無効") + "\n")
		b.WriteString("- AI API利用可能: " + check(r.AIAvailable, "はい", "いいえ") + "\n\n")
		b.WriteString("**デバッグ情報**: AI APIが正しく設定されていないか、接続に失敗しています。\n")
		b.WriteString("設定ファイル（.cafeteria.yml）を確認してください。")
		return b.String()

	case KindQuota:
		b.WriteString("❌ **OpenAI APIのクォータが超過しました**\n\n")
		b.WriteString("**エラー詳細**:\n")
		b.WriteString("- OpenAI APIの無料クレジットが使い切られました\n")
		b.WriteString("- または、APIキーにクレジットが残っていません\n\n")
		b.WriteString("**試行されたAPI**:\n")
		b.WriteString(r.providerList() + "\n")
		b.WriteString(r.attemptList())
		b.WriteString("**解決策**:\n")
		b.WriteString("1. OpenAI Platform（https://platform.openai.com/）でクレジットを追加する\n")
		b.WriteString("2. 新しいAPIキーを取得する\n")
		b.WriteString("3. 他のAPI（Gemini、Hugging Face）を有効にする\n\n")
		b.WriteString("**現在の状況**:\n")
		b.WriteString("- OpenAI API: ❌ クォータ超過のため使用不可\n")
		b.WriteString("- デバッグログで詳細を確認してください")
		return b.String()
	}

	b.WriteString("❌ **AI API呼び出しが失敗しました**\n\n")
	b.WriteString("**システム情報**:\n")
	b.WriteString("- 実行モード: " + string(r.Mode) + "\n\n")
	b.WriteString("**試行されたAPI**:\n")
	b.WriteString(r.providerList() + "\n")
	b.WriteString(r.attemptList())
	b.WriteString("**考えられる原因**:\n")
	b.WriteString("1. サーバーから外部APIへの接続がファイアウォール等で制限されている\n")
	b.WriteString("2. APIキーが無効または期限切れ\n")
	b.WriteString("3. ネットワーク接続の問題\n")
	b.WriteString("4. APIサービスの一時的な障害\n\n")
	b.WriteString("**解決策**:\n")
	b.WriteString("1. `cafeteria doctor` で各APIの接続状況を確認する\n")
	b.WriteString("2. 設定ファイルまたは環境変数のAPIキーを確認する\n")
	b.WriteString("3. サーバーのログを確認する\n\n")
	b.WriteString("**デバッグ情報**:\n")
	b.WriteString("- 上記の「テスト」結果を確認してください\n")
	b.WriteString("- 「接続タイムアウト」や「接続エラー」が表示されている場合、ネットワーク制限が原因の可能性が高いです")
	return b.String()
}

// HTML renders the report as an HTML fragment.
func (r Report) HTML() (string, error) {
	return markdown.ToHTML(r.Markdown())
}
