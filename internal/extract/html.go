package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/maildigest/internal/filter"
	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/security"
	"github.com/hitoshi/maildigest/internal/urlnorm"
)

// htmlStrategy はHTML本文のアンカー要素から記事候補を抽出する。
type htmlStrategy struct{}

func (s *htmlStrategy) Name() string { return "html" }

func (s *htmlStrategy) Extract(email model.DecodedEmail, cfg Config) []model.Candidate {
	if email.HTMLBody == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(email.HTMLBody))
	if err != nil {
		return nil
	}

	var candidates []model.Candidate
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		rawURL := urlnorm.UnwrapRedirect(strings.TrimSpace(href))
		if rawURL == "" {
			return
		}

		// 明らかに記事でないリンクは早期に捨てる。ブロック判定の
		// 正は後段のフィルタチェーンだが、ここで落とすことで
		// タイトル・スニペット組み立てのコストを省く。
		if filter.IsBlockedDomain(rawURL) || filter.HasBlockedKeyword(rawURL) {
			return
		}
		if filter.IsAggregatorURL(rawURL) || !filter.IsLikelyArticleURL(rawURL) {
			return
		}

		anchorText := security.CollapseWhitespace(sel.Text())
		ariaLabel, _ := sel.Attr("aria-label")
		titleAttr, _ := sel.Attr("title")
		rawTitle := security.CollapseWhitespace(strings.TrimSpace(
			anchorText + " " + ariaLabel + " " + titleAttr))

		snippet := truncateRunes(bestSnippet(sel, anchorText), cfg.SnippetMaxLen)

		title := bestTitle(rawTitle, snippet, email.Subject, cfg.MinTitleLength)
		if utf8.RuneCountInString(title) < cfg.MinTitleLength {
			return
		}
		if looksLikeButton(title) {
			return
		}

		candidates = append(candidates, model.Candidate{
			Title:   title,
			Snippet: snippet,
			RawURL:  rawURL,
		})
	})

	return candidates
}

// bestSnippet はアンカー自身・親・祖父要素のテキストのうち
// 最も長いものをスニペットとして選ぶ。周辺の文脈を含む方が
// スコアリング時の情報量が多い。
func bestSnippet(sel *goquery.Selection, anchorText string) string {
	best := anchorText
	for _, candidate := range []*goquery.Selection{sel.Parent(), sel.Parent().Parent()} {
		if candidate.Length() == 0 {
			continue
		}
		text := security.CollapseWhitespace(candidate.Text())
		if utf8.RuneCountInString(text) > utf8.RuneCountInString(best) {
			best = text
		}
	}
	return best
}

// bestTitle はアンカーテキスト→スニペット→件名の順でタイトルを決める。
// アンカーテキストがボタン文言、またはminTitleより短い場合は
// スニペットの先頭部分を試し、それも短ければ件名に落ちる。
func bestTitle(rawTitle, snippet, subject string, minTitle int) string {
	if rawTitle != "" && !looksLikeButton(rawTitle) && utf8.RuneCountInString(rawTitle) >= minTitle {
		return rawTitle
	}
	if utf8.RuneCountInString(snippet) >= minTitle {
		return truncateRunes(snippet, 80)
	}
	cleaned := security.CollapseWhitespace(subject)
	if cleaned == "" {
		return noSubjectPlaceholder
	}
	return cleaned
}
