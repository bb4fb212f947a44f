// Package urlnorm は記事URLの正規化を提供する。
// 正規化後のURLが重複排除とseenキャッシュの同一性キーとなるため、
// Normalizeは冪等でなければならない: Normalize(Normalize(u)) == Normalize(u)。
package urlnorm

import (
	"net/url"
	"strings"
)

// trackingPrefixes は除去対象のトラッキングパラメータのキー接頭辞。
var trackingPrefixes = []string{
	"utm_",
	"fbclid",
	"gclid",
	"igshid",
	"mc_cid",
	"mc_eid",
}

// Normalize は記事URLを正規化して同一性キーとして使える形に揃える。
// 処理内容:
//  1. リダイレクトラッパーの展開（抽出時に展開済みでも防御的に再適用）
//  2. トラッキングパラメータの除去
//  3. フラグメントのクリア
//  4. ホスト名の小文字化と先頭"www."の除去
//  5. 末尾スラッシュ1つの除去
//
// パースできない入力はトリムしてそのまま返す（ベストエフォート、エラーは返さない）。
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return ""
	}

	unwrapped := strings.TrimSpace(UnwrapRedirect(trimmed))

	u, err := url.Parse(unwrapped)
	if err != nil {
		return unwrapped
	}

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Fragment = ""
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	// 末尾スラッシュは全て落とす。1つだけ落とすと "//" で終わる入力が
	// 2回目の適用で変化してしまい、冪等性が壊れる。
	s := u.String()
	s = strings.TrimRight(s, "/")
	return s
}

// Hostname は正規化済みURLのホスト名を返す。パース不能な場合は空文字列。
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
