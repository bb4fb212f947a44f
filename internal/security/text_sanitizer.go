// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はメールから抽出したタイトル・スニペットを
// プレーンテキストとして安全に整形する。bluemondayの厳格ポリシーで
// 全てのタグを除去した上で、HTMLエンティティを復元し、
// 連続空白とゼロ幅文字を畳み込む。出力にマークアップは一切残らない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は抽出テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizerService interface {
	// CleanText は入力からマークアップを全て除去し、空白を正規化した
	// プレーンテキストを返す。空入力には空文字列を返す。冪等。
	CleanText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに動作する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// CleanText は入力からマークアップを除去し、空白を正規化して返す。
func (s *textSanitizer) CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	stripped := s.policy.Sanitize(raw)
	// StrictPolicyはテキストをエンティティとしてエスケープして返すため、
	// プレーンテキストとして扱うにはアンエスケープが必要
	text := html.UnescapeString(stripped)

	return CollapseWhitespace(text)
}

// CollapseWhitespace は連続する空白文字を半角スペース1つに畳み込み、
// ゼロ幅文字（U+200B〜U+200D、U+FEFF）を除去して前後をトリムする。
func CollapseWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastWasSpace := false
	for _, r := range text {
		switch {
		case r == '\u200b', r == '\u200c', r == '\u200d', r == '\ufeff':
			// ゼロ幅文字は無視
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\u00a0':
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}
