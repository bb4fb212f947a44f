// Package filter は記事候補のフィルタチェーンを提供する。
// 正規化済みURLに対して、ブロック対象ドメイン・システムリンク・
// 記事らしくない構造のURLを除外する。除外は黙示的で、エラーは発生しない。
package filter

import (
	"net/url"
	"strings"

	"github.com/hitoshi/maildigest/internal/urlnorm"
)

// blockedDomains はブロック対象のドメイン一覧。
// 動画・ソーシャル系など、単一記事を指さない宛先を除外する。
// サブドメインも一致対象となる。
var blockedDomains = []string{
	"tiktok.com",
	"youtube.com",
	"youtu.be",
	"instagram.com",
	"facebook.com",
	"x.com",
	"twitter.com",
	"threads.net",
	"reddit.com",
	"discord.com",
	"discord.gg",
	"t.me",
}

// blockedKeywords はURLに含まれていたら除外するキーワード一覧。
// 配信解除・設定ページなどのシステムリンクを対象とする。
var blockedKeywords = []string{
	"google.com/alerts",
	"unsubscribe",
	"preferences",
	"accounts.google",
	"support.google",
	"policies.google",
	"myaccount.google",
	"mail.google.com",
}

// aggregatorPatterns は検索・アグリゲータの結果ページのURLパターン一覧。
// これらは単一記事ではなく一覧を返すため除外する。
var aggregatorPatterns = []string{
	"google.com/search",
	"news.google.com/search",
	"search.naver.com",
	"m.search.naver.com",
	"media.naver.com/press",
	"vertexaisearch.cloud.google.com",
}

// Chain はフィルタチェーンを表す。
type Chain struct{}

// NewChain はデフォルトのブロックリストを持つChainを生成する。
func NewChain() *Chain {
	return &Chain{}
}

// Keep は候補を残すべきかどうかを判定する。
// rawURLとcanonicalURLの両方がキーワード検査の対象となる
// （正規化でトラッキングパラメータ内のキーワードが消える場合があるため）。
func (c *Chain) Keep(rawURL, canonicalURL string) bool {
	if IsBlockedDomain(canonicalURL) {
		return false
	}
	if HasBlockedKeyword(rawURL) || HasBlockedKeyword(canonicalURL) {
		return false
	}
	if IsAggregatorURL(canonicalURL) {
		return false
	}
	return IsLikelyArticleURL(canonicalURL)
}

// IsBlockedDomain はURLのホストがブロック対象ドメイン
// （またはそのサブドメイン）かどうかを判定する。
func IsBlockedDomain(rawURL string) bool {
	host := urlnorm.Hostname(rawURL)
	if host == "" {
		return false
	}
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// HasBlockedKeyword はURLにブロック対象キーワードが含まれるかどうかを判定する。
func HasBlockedKeyword(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, k := range blockedKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// IsAggregatorURL はURLが検索・アグリゲータの結果ページかどうかを判定する。
func IsAggregatorURL(rawURL string) bool {
	for _, p := range aggregatorPatterns {
		if strings.Contains(rawURL, p) {
			return true
		}
	}
	return false
}

// IsLikelyArticleURL はURLが構造的に単一記事を指しているかどうかを判定する。
// 条件: スキームがhttp/https、ホスト名にドットを含む、パスがルート以外に存在する。
func IsLikelyArticleURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	if !strings.Contains(u.Hostname(), ".") {
		return false
	}
	if u.Path == "" || u.Path == "/" || len(u.Path) < 2 {
		return false
	}
	return true
}
