// Package alerts はGoogle AlertsのRSSフィードを候補ソースとして読む。
// メール経路と同じ候補プールに合流させるため、エントリはCandidateに
// 変換して返し、正規化・フィルタ・スコアリングは後段に委ねる。
package alerts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/urlnorm"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// TextCleaner はフィード由来のタイトル・概要からマークアップを除去する。
type TextCleaner interface {
	CleanText(raw string) string
}

// Source は設定されたRSSフィードを順に読み、記事候補を返す。
type Source struct {
	ssrfGuard   SSRFValidator
	cleaner     TextCleaner
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewSource はSourceの新しいインスタンスを生成する。
func NewSource(ssrfGuard SSRFValidator, cleaner TextCleaner, logger *slog.Logger, timeout time.Duration, maxBodySize int64) *Source {
	return &Source{
		ssrfGuard:   ssrfGuard,
		cleaner:     cleaner,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// FetchCandidates は各フィードを取得し、全エントリを候補として返す。
// フィード単位で失敗を隔離する: SSRF検証失敗・HTTPエラー・パース失敗は
// ログに残して次のフィードへ進み、エラーとしては返さない。
func (s *Source) FetchCandidates(ctx context.Context, feedURLs []string) []model.Candidate {
	var candidates []model.Candidate

	for _, feedURL := range feedURLs {
		items, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			s.logger.Warn("アラートフィードの取得に失敗しました",
				slog.String("feed_url", feedURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		candidates = append(candidates, items...)
	}

	return candidates
}

// fetchFeed は単一フィードを取得・パースして候補に変換する。
func (s *Source) fetchFeed(ctx context.Context, feedURL string) ([]model.Candidate, error) {
	if err := s.ssrfGuard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := s.ssrfGuard.NewSafeClient(s.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Maildigest/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTPステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	return s.convertItems(parsed.Items), nil
}

// convertItems はフィードエントリを候補に変換する。
// Google AlertsのリンクはGoogleのリダイレクトを経由するため、
// ここで展開しておく。リンクのないエントリは捨てる。
func (s *Source) convertItems(items []*gofeed.Item) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}

		candidates = append(candidates, model.Candidate{
			Title:   s.cleaner.CleanText(item.Title),
			Snippet: s.cleaner.CleanText(item.Description),
			RawURL:  urlnorm.UnwrapRedirect(item.Link),
		})
	}
	return candidates
}
