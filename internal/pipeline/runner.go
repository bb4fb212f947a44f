// Package pipeline はメールからダイジェストを生成する一連の処理を束ねる。
// ラベル解決→取得→デコード→抽出→正規化→フィルタ→重複排除→seen抑制→
// スコアリング→切り詰め→seen記録の順で実行する。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/maildigest/internal/dedupe"
	"github.com/hitoshi/maildigest/internal/extract"
	"github.com/hitoshi/maildigest/internal/filter"
	"github.com/hitoshi/maildigest/internal/metrics"
	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/repository"
	"github.com/hitoshi/maildigest/internal/score"
	"github.com/hitoshi/maildigest/internal/seen"
	"github.com/hitoshi/maildigest/internal/settings"
	"github.com/hitoshi/maildigest/internal/urlnorm"
)

// MailSource はメールプロバイダへのアクセスインターフェース。
type MailSource interface {
	ListLabels(ctx context.Context) ([]model.Label, error)
	// ListMessageIDs はlabelIDが空でなければラベル検索、空ならquery検索を行う。
	ListMessageIDs(ctx context.Context, labelID, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (model.RawMessage, error)
}

// CandidateSource はメール以外の候補ソース(RSSフィードなど)のインターフェース。
type CandidateSource interface {
	FetchCandidates(ctx context.Context, feedURLs []string) []model.Candidate
}

// SettingsLoader はパイプライン設定の読み込みインターフェース。
type SettingsLoader interface {
	Load(ctx context.Context) (settings.PipelineConfig, error)
}

// Options は1回の実行のオプションを表す。
type Options struct {
	// ExcludeSeen がtrueの場合、seenキャッシュによる抑制と記録を行う。
	ExcludeSeen bool
}

// DefaultOptions は既定の実行オプションを返す。
func DefaultOptions() Options {
	return Options{ExcludeSeen: true}
}

// Result は1回の実行の結果を表す。
type Result struct {
	RunID        string          `json:"run_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	MessagesRead int             `json:"messages_read"`
	Articles     []model.Article `json:"articles"`
}

// Runner はダイジェストパイプラインの実行を担う。
type Runner struct {
	mail          MailSource
	alerts        CandidateSource
	settingsSvc   SettingsLoader
	kvRepo        repository.KeyValueRepository
	collector     metrics.MetricsCollector
	extractor     *extract.Extractor
	filters       *filter.Chain
	logger        *slog.Logger
	fetchTimeout  time.Duration
	maxConcurrent int
}

// NewRunner はRunnerの新しいインスタンスを生成する。
// alertsはnilでもよい(フィードソースなしで動作する)。
// maxConcurrentが0以下の場合はデフォルト値8を使用する。
func NewRunner(
	mail MailSource,
	alerts CandidateSource,
	settingsSvc SettingsLoader,
	kvRepo repository.KeyValueRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	fetchTimeout time.Duration,
	maxConcurrent int,
) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Runner{
		mail:          mail,
		alerts:        alerts,
		settingsSvc:   settingsSvc,
		kvRepo:        kvRepo,
		collector:     collector,
		extractor:     extract.NewExtractor(),
		filters:       filter.NewChain(),
		logger:        logger,
		fetchTimeout:  fetchTimeout,
		maxConcurrent: maxConcurrent,
	}
}

// Run はパイプラインを1回実行する。
// 個別メッセージの取得失敗は実行全体を止めず、ログに残してスキップする。
// 想定外のpanicはここで回収し、1つのエラーとして返す。
func (r *Runner) Run(ctx context.Context, opts Options) (result *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()

	defer func() {
		if rec := recover(); rec != nil {
			r.collector.RecordRunFailure("panic")
			result = nil
			err = fmt.Errorf("digest run %s panicked: %v", runID, rec)
		}
	}()

	cfg, err := r.settingsSvc.Load(ctx)
	if err != nil {
		r.collector.RecordRunFailure("settings")
		return nil, err
	}

	r.logger.Info("ダイジェスト実行を開始します",
		slog.String("run_id", runID),
		slog.String("label_name", cfg.LabelName),
		slog.Bool("exclude_seen", opts.ExcludeSeen),
	)

	ids, err := r.listMessageIDs(ctx, cfg)
	if err != nil {
		r.collector.RecordRunFailure(failureReason(err))
		return nil, err
	}

	messages, err := r.fetchMessages(ctx, runID, ids)
	if err != nil {
		r.collector.RecordRunFailure(failureReason(err))
		return nil, err
	}
	r.collector.RecordMessagesFetched(len(messages))

	candidates := r.extractCandidates(runID, messages, cfg)

	if r.alerts != nil && len(cfg.AlertFeedURLs) > 0 {
		feedCandidates := r.alerts.FetchCandidates(ctx, cfg.AlertFeedURLs)
		r.logger.Info("アラートフィードから候補を取得しました",
			slog.String("run_id", runID),
			slog.Int("candidate_count", len(feedCandidates)),
		)
		candidates = append(candidates, feedCandidates...)
	}
	r.collector.RecordCandidatesExtracted(len(candidates))

	articles := r.buildArticles(candidates, cfg)

	var cache *seen.Cache
	if opts.ExcludeSeen {
		cache = seen.NewCache(r.kvRepo)
		if loadErr := cache.Load(ctx); loadErr != nil {
			// キャッシュが読めなくても実行は継続する(抑制なしと同じ扱い)
			r.logger.Warn("seenキャッシュの読み込みに失敗しました",
				slog.String("run_id", runID),
				slog.String("error", loadErr.Error()),
			)
		}
		before := len(articles)
		articles = cache.FilterSeen(articles)
		r.collector.RecordSeenSuppressed(before - len(articles))
	}

	ranked := score.Rank(articles, strings.TrimSpace(cfg.LabelName))
	if len(ranked) > cfg.MaxItemsToReturn {
		ranked = ranked[:cfg.MaxItemsToReturn]
	}

	if opts.ExcludeSeen {
		if markErr := cache.MarkSeen(ctx, ranked, cfg.SeenTTLDays); markErr != nil {
			r.logger.Warn("seenキャッシュの保存に失敗しました",
				slog.String("run_id", runID),
				slog.String("error", markErr.Error()),
			)
		}
	}

	duration := time.Since(start)
	r.collector.RecordArticlesReturned(len(ranked))
	r.collector.RecordRunLatency(duration)
	r.collector.RecordRunSuccess()

	r.logger.Info("ダイジェスト実行が完了しました",
		slog.String("run_id", runID),
		slog.Int("messages_read", len(messages)),
		slog.Int("candidates", len(candidates)),
		slog.Int("articles", len(ranked)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return &Result{
		RunID:        runID,
		GeneratedAt:  start.UTC(),
		MessagesRead: len(messages),
		Articles:     ranked,
	}, nil
}

// listMessageIDs はラベル解決を試み、見つかればラベル検索、
// 見つからなければフォールバッククエリで検索する。
// どちらの経路でも0件の場合はNoMatchingMessagesエラーを返す。
func (r *Runner) listMessageIDs(ctx context.Context, cfg settings.PipelineConfig) ([]string, error) {
	labels, err := r.mail.ListLabels(ctx)
	if err != nil {
		return nil, err
	}

	labelID := ""
	if label, found := ResolveLabel(labels, cfg.LabelName); found {
		labelID = label.ID
	} else {
		r.logger.Info("ラベルが見つからないためフォールバッククエリを使用します",
			slog.String("label_name", cfg.LabelName),
		)
	}

	ids, err := r.mail.ListMessageIDs(ctx, labelID, cfg.FallbackQuery, int64(cfg.MaxMessagesToRead))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, model.NewNoMatchingMessagesError()
	}
	return ids, nil
}

// fetchMessages はメッセージをsemaphoreで並列数を制御しながら取得する。
// 個別の取得失敗はスキップされ、成功分だけが元のID順で返る。
// 順序を保つのは、重複排除の同点時に先勝ちとなる候補順を
// 決定的にするため。
// ただし認証エラーが1件でも含まれる場合、および全件が失敗した場合は
// 実行全体の失敗としてエラーを返す。
func (r *Runner) fetchMessages(ctx context.Context, runID string, ids []string) ([]model.RawMessage, error) {
	results := make([]*model.RawMessage, len(ids))
	fetchErrs := make([]error, len(ids))

	sem := make(chan struct{}, r.maxConcurrent)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, msgID string) {
			defer wg.Done()
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()

			msg, err := r.mail.GetMessage(fetchCtx, msgID)
			if err != nil {
				r.logger.Warn("メッセージの取得に失敗しました",
					slog.String("run_id", runID),
					slog.String("message_id", msgID),
					slog.String("error", err.Error()),
				)
				fetchErrs[idx] = err
				return
			}
			results[idx] = &msg
		}(i, id)
	}
	wg.Wait()

	messages := make([]model.RawMessage, 0, len(ids))
	for _, m := range results {
		if m != nil {
			messages = append(messages, *m)
		}
	}

	// 一覧取得とメッセージ取得の間でトークンが失効するケース。
	// 空の成功ダイジェストに化けさせず、認証エラーとして伝播する。
	for _, fetchErr := range fetchErrs {
		var apiErr *model.APIError
		if errors.As(fetchErr, &apiErr) && apiErr.Code == model.ErrCodeAuthFailed {
			return nil, fetchErr
		}
	}

	if len(messages) == 0 && len(ids) > 0 {
		return nil, model.NewFetchFailedError("すべてのメッセージ取得に失敗しました")
	}

	return messages, nil
}

// extractCandidates は各メッセージをデコードし、抽出カスケードを適用する。
func (r *Runner) extractCandidates(runID string, messages []model.RawMessage, cfg settings.PipelineConfig) []model.Candidate {
	extractCfg := extract.Config{
		MinTitleLength: cfg.MinTitleLength,
		SnippetMaxLen:  cfg.SnippetMaxLen,
	}

	var candidates []model.Candidate
	for _, msg := range messages {
		decoded := extract.DecodeEmail(msg)
		extracted, strategy := r.extractor.Extract(decoded, extractCfg)
		if len(extracted) == 0 {
			r.logger.Debug("候補が抽出されませんでした",
				slog.String("run_id", runID),
				slog.String("message_id", msg.ID),
			)
			continue
		}
		r.logger.Debug("候補を抽出しました",
			slog.String("run_id", runID),
			slog.String("message_id", msg.ID),
			slog.String("strategy", strategy),
			slog.Int("candidate_count", len(extracted)),
		)
		candidates = append(candidates, extracted...)
	}
	return candidates
}

// buildArticles は候補を正規化・フィルタ・重複排除して記事にする。
func (r *Runner) buildArticles(candidates []model.Candidate, cfg settings.PipelineConfig) []model.Article {
	entries := make([]dedupe.Entry, 0, len(candidates))
	for _, c := range candidates {
		canonical := urlnorm.Normalize(c.RawURL)
		if canonical == "" {
			continue
		}
		if !r.filters.Keep(c.RawURL, canonical) {
			continue
		}
		entries = append(entries, dedupe.Entry{Candidate: c, CanonicalURL: canonical})
	}

	merged := dedupe.Merge(entries)

	articles := make([]model.Article, 0, len(merged))
	for _, e := range merged {
		// フィード経由などタイトル長検査を通っていない候補もここで揃える
		if utf8.RuneCountInString(e.Candidate.Title) < cfg.MinTitleLength {
			continue
		}
		articles = append(articles, model.Article{
			Title:        e.Candidate.Title,
			CanonicalURL: e.CanonicalURL,
			Host:         urlnorm.Hostname(e.CanonicalURL),
			Snippet:      e.Candidate.Snippet,
		})
	}
	return articles
}

// failureReason はメトリクスのラベルに使う失敗原因の分類を返す。
func failureReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeAuthFailed:
			return "auth"
		case model.ErrCodeNoMatchingMessages:
			return "no_messages"
		}
	}
	return "mail"
}
