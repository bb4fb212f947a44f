package urlnorm

import (
	"net/url"
	"strings"
)

// UnwrapRedirect はGoogleのリダイレクトラッパーURLから真の宛先URLを取り出す。
// Google Alertsや検索結果のリンクは google.com/url?q=<dest> または
// google.com/url?url=<dest> の形式でクリック追跡を行うため、
// qまたはurlクエリパラメータをデコードして宛先に差し替える。
// ラッパーでないURLはそのまま返す。
func UnwrapRedirect(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "google.com/url?") {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err == nil {
		q := u.Query()
		if dest := q.Get("url"); dest != "" {
			return dest
		}
		if dest := q.Get("q"); dest != "" {
			return dest
		}
		return rawURL
	}

	// パース不能な壊れたラッパーでも q= 以降の切り出しを試みる
	if idx := strings.Index(rawURL, "url?q="); idx >= 0 {
		rest := rawURL[idx+len("url?q="):]
		if amp := strings.IndexByte(rest, '&'); amp >= 0 {
			rest = rest[:amp]
		}
		if dest, err := url.QueryUnescape(rest); err == nil && dest != "" {
			return dest
		}
	}

	return rawURL
}
