// Package model はドメインモデルを定義する。
package model

// RawMessage はメールプロバイダから取得した未加工メッセージを表す。
// ヘッダとMIMEパートのツリーを保持し、本文はbase64url符号化のまま格納される。
type RawMessage struct {
	ID      string
	Headers map[string]string
	Payload MessagePart
}

// MessagePart はMIMEパートツリーの1ノードを表す。
// 葉ノードはBodyDataに本文を持ち、中間ノードはPartsに子パートを持つ。
type MessagePart struct {
	MimeType string
	BodyData string // base64url符号化された本文
	Parts    []MessagePart
}

// DecodedEmail はデコード済みメール本文を表す。
// HTMLBody、TextBodyのいずれか（または両方）が空の場合がある。
type DecodedEmail struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Candidate はメール本文から抽出した未フィルタの記事候補を表す。
// 同一の宛先URLを指す候補が複数メッセージにまたがって存在しうる。
type Candidate struct {
	Title   string
	Snippet string
	RawURL  string
}

// Article は正規化・スコアリング済みの記事を表す。
// CanonicalURLが重複排除とseenキャッシュの同一性キーとなる。
type Article struct {
	Title        string  `json:"title"`
	CanonicalURL string  `json:"canonical_url"`
	Host         string  `json:"host"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// Label はメールプロバイダのラベルを表す。
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
