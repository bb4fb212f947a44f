// Package score は記事の複合関連度スコアの算出とランキングを提供する。
package score

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/hitoshi/maildigest/internal/model"
)

// strongDomains は大きな固定ボーナスを与える主要報道機関のドメイン一覧。
var strongDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"wsj.com",
	"ft.com",
	"economist.com",
	"nytimes.com",
	"bbc.co.uk",
	"bbc.com",
	"cnn.com",
	"apnews.com",
	"khan.co.kr",
	"chosun.com",
	"joongang.co.kr",
	"donga.com",
	"hani.co.kr",
	"mk.co.kr",
	"hankyung.com",
	"yonhapnews.co.kr",
}

// mediumDomains は小さな固定ボーナスを与えるアグリゲータ・プラットフォームのドメイン一覧。
var mediumDomains = []string{
	"naver.com",
	"daum.net",
	"medium.com",
	"substack.com",
	"brunch.co.kr",
}

const (
	strongDomainBonus = 18.0
	mediumDomainBonus = 8.0
	keywordHintBonus  = 8.0

	articleSegmentBonus = 6.0
	yearInPathBonus     = 4.0
	deepPathBonus       = 3.0
)

var (
	articleSegmentRe = regexp.MustCompile(`(?i)(news|article|story|stories|press|post)`)
	yearInPathRe     = regexp.MustCompile(`20\d{2}`)
)

// Score は記事1件の複合関連度スコアを算出する。全ての項は加算で合成される。
//   - タイトル長: clamp(len, 0, 120) * 0.4
//   - スニペット長: clamp(len, 0, 300) * 0.2
//   - ドメイン信頼度: strong/mediumの段階的ボーナス
//   - キーワードヒント: タイトルに含まれる場合の固定ボーナス（大文字小文字無視）
//   - URL形状: 記事らしいパスセグメント・西暦・深いパスへの小ボーナス
func Score(a model.Article, keywordHint string) float64 {
	s := 0.0

	titleLen := len([]rune(a.Title))
	s += clamp(float64(titleLen), 0, 120) * 0.4

	snippetLen := len([]rune(a.Snippet))
	s += clamp(float64(snippetLen), 0, 300) * 0.2

	s += domainTrust(a.Host)

	hint := strings.ToLower(strings.TrimSpace(keywordHint))
	if hint != "" && strings.Contains(strings.ToLower(a.Title), hint) {
		s += keywordHintBonus
	}

	s += urlShape(a.CanonicalURL)

	return s
}

// Rank は全記事にスコアを割り当て、スコア降順の安定ソートを適用して返す。
// 同点の場合は入力順を保つ。
func Rank(articles []model.Article, keywordHint string) []model.Article {
	ranked := make([]model.Article, len(articles))
	copy(ranked, articles)

	for i := range ranked {
		ranked[i].Score = Score(ranked[i], keywordHint)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// domainTrust はホストの段階的信頼度ボーナスを返す。
// リスト登録ドメインおよびそのサブドメインが対象。未登録は0。
func domainTrust(host string) float64 {
	h := strings.ToLower(host)
	for _, d := range strongDomains {
		if h == d || strings.HasSuffix(h, "."+d) {
			return strongDomainBonus
		}
	}
	for _, d := range mediumDomains {
		if h == d || strings.HasSuffix(h, "."+d) {
			return mediumDomainBonus
		}
	}
	return 0
}

// urlShape はURLパスの記事らしさに応じた小ボーナスの合計を返す。
func urlShape(rawURL string) float64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	p := u.Path

	s := 0.0
	if articleSegmentRe.MatchString(p) {
		s += articleSegmentBonus
	}
	if yearInPathRe.MatchString(p) {
		s += yearInPathBonus
	}
	if countSegments(p) >= 3 {
		s += deepPathBonus
	}
	return s
}

func countSegments(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

func clamp(n, min, max float64) float64 {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
