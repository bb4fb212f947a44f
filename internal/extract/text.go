package extract

import (
	"regexp"
	"strings"

	"github.com/hitoshi/maildigest/internal/filter"
	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/security"
	"github.com/hitoshi/maildigest/internal/urlnorm"
)

// textURLPattern はプレーンテキスト中のURLらしき並びを拾う。
// スキーム付きURLと "www." で始まるホストの両方を対象とする。
var textURLPattern = regexp.MustCompile(`(https?://[^\s<>"'()]+)|(www\.[^\s<>"'()]+)`)

// textMaxCandidates はプレーンテキスト抽出が返す候補数の上限。
// HTMLと違い文脈情報がないため、際限なく拾っても質が上がらない。
const textMaxCandidates = 10

// textStrategy はプレーンテキスト本文からURLを正規表現で拾う
// フォールバック抽出。タイトルは件名、スニペットは本文冒頭となる。
type textStrategy struct{}

func (s *textStrategy) Name() string { return "text" }

func (s *textStrategy) Extract(email model.DecodedEmail, cfg Config) []model.Candidate {
	if email.TextBody == "" {
		return nil
	}

	title := security.CollapseWhitespace(email.Subject)
	if title == "" {
		title = noSubjectPlaceholder
	}
	snippet := truncateRunes(security.CollapseWhitespace(email.TextBody), cfg.SnippetMaxLen)

	seen := make(map[string]struct{})
	var candidates []model.Candidate
	for _, match := range textURLPattern.FindAllString(email.TextBody, -1) {
		if len(candidates) >= textMaxCandidates {
			break
		}

		rawURL := strings.TrimRight(match, ".,;:!?")
		if strings.HasPrefix(rawURL, "www.") {
			rawURL = "https://" + rawURL
		}
		rawURL = urlnorm.UnwrapRedirect(rawURL)
		if rawURL == "" {
			continue
		}
		if _, dup := seen[rawURL]; dup {
			continue
		}

		if filter.IsBlockedDomain(rawURL) || filter.HasBlockedKeyword(rawURL) {
			continue
		}
		if filter.IsAggregatorURL(rawURL) || !filter.IsLikelyArticleURL(rawURL) {
			continue
		}

		seen[rawURL] = struct{}{}
		candidates = append(candidates, model.Candidate{
			Title:   title,
			Snippet: snippet,
			RawURL:  rawURL,
		})
	}

	return candidates
}
