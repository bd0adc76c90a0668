// Package prompt renders the summarization instructions sent to Gemini
// alongside the audio payload.
package prompt

import (
	"fmt"
	"strings"
)

// Meta holds the feed-entry fields interpolated into the prompt. The
// Japanese title is left blank on purpose: the model generates it.
type Meta struct {
	OriginalTitle string
	Channel       string
	URL           string
	Published     string // YYYY/MM/DD
}

// Build renders the full editor prompt. The output contract (YAML front
// matter, three sections, 3000-character cap, です/ます register) is what the
// downstream Markdown library expects; change it carefully.
func Build(m Meta) string {
	var sb strings.Builder

	sb.WriteString("あなたは優秀な日英バイリンガル編集者です。以下の指示に従い、コンテンツの文字起こし全文を処理してください。\n")
	sb.WriteString("**出力は日本語・Markdown形式、総文字数は必ず3000字以内**に収めてください。コードブロックは禁止です。\n\n")

	sb.WriteString("=====================\n")
	sb.WriteString("### YAMLメタデータ\n")
	sb.WriteString("必ず最初に YAML フロントマターを挿入してください（開始行と終了行を --- で囲む）。\n")
	sb.WriteString("実際に取り込んだ動画/音声のデータを以下の形式で記載してください。\n")
	sb.WriteString("含めるキー:\n")
	sb.WriteString("- title: （日本語タイトルを生成すること）\n")
	fmt.Fprintf(&sb, "- original_title: %s\n", m.OriginalTitle)
	fmt.Fprintf(&sb, "- channel: %s\n", m.Channel)
	fmt.Fprintf(&sb, "- url: %s\n", m.URL)
	fmt.Fprintf(&sb, "- published: %s\n", m.Published)
	sb.WriteString("\n")

	sb.WriteString("### 1. 要約 (1000字以内, です/ます調)\n")
	sb.WriteString("- まず **動画/音声全体を俯瞰した5文のリード文**\n")
	sb.WriteString("- 次に **キーテーマ** を箇条書き (最大6項目)\n")
	sb.WriteString("- それぞれのテーマに対応する **主要ポイント** を番号付きリストで記載 (1行70文字以内)\n")
	sb.WriteString("- 具体的数字・固有名詞を残し、冗長・重複表現は削除\n\n")

	sb.WriteString("### 2. ポイント (2000字以内, です/ます調)\n")
	sb.WriteString("- 文字起こし全文を、**冗長な相づち・脱線・繰り返し** を省きながら時系列で整理\n")
	sb.WriteString("- 重要な見出しごとに `####` の小見出しを付け、続けて本文\n")
	sb.WriteString("- 会話形式は「**Q:**」「**A:**」を用いて流れを追いやすく\n")
	sb.WriteString("- 引用・例示・数字・固有名詞は正確に保持\n\n")

	sb.WriteString("### 3. 次の提案 (任意, 見つかった場合のみ)\n")
	sb.WriteString("- 引用記事・文献・論文やツールがあれば箇条書きで列挙 (1行150字以内、URL必須)\n\n")

	sb.WriteString("=====================\n")
	sb.WriteString("### 出力ルールまとめ\n")
	sb.WriteString("- 全体で**最大3000字**\n")
	sb.WriteString("- 見出しは `#` を使わず、必ず `###` から始める\n")
	sb.WriteString("- 「です/ます」調を徹底\n")
	sb.WriteString("- 指示やコメントは出力しない\n")
	sb.WriteString("- 指定以外のセクションを追加しない\n")

	return sb.String()
}
