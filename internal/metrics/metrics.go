// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// パイプラインとワーカーから利用する。
type MetricsCollector interface {
	RecordRunSuccess()
	RecordRunFailure(reason string)
	RecordMessagesFetched(count int)
	RecordCandidatesExtracted(count int)
	RecordArticlesReturned(count int)
	RecordSeenSuppressed(count int)
	RecordRunLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	runSuccess     prometheus.Counter
	runFail        *prometheus.CounterVec
	messages       prometheus.Counter
	candidates     prometheus.Counter
	articles       prometheus.Counter
	seenSuppressed prometheus.Counter
	runLatency     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_run_success_total",
			Help: "ダイジェスト実行成功の合計数",
		}),
		runFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maildigest_run_fail_total",
			Help: "ダイジェスト実行失敗の合計数（原因別）",
		}, []string{"reason"}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_messages_fetched_total",
			Help: "取得したメールメッセージの合計数",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_candidates_extracted_total",
			Help: "抽出された記事候補の合計数",
		}),
		articles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_articles_returned_total",
			Help: "ダイジェストとして返却された記事の合計数",
		}),
		seenSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_seen_suppressed_total",
			Help: "seenキャッシュにより抑制された記事の合計数",
		}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maildigest_run_latency_seconds",
			Help:    "ダイジェスト実行のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.runSuccess,
		c.runFail,
		c.messages,
		c.candidates,
		c.articles,
		c.seenSuppressed,
		c.runLatency,
	)

	return c
}

// RecordRunSuccess は実行成功を記録する。
func (c *Collector) RecordRunSuccess() {
	c.runSuccess.Inc()
}

// RecordRunFailure は実行失敗を原因別に記録する。
func (c *Collector) RecordRunFailure(reason string) {
	c.runFail.WithLabelValues(reason).Inc()
}

// RecordMessagesFetched は取得したメッセージ数を記録する。
func (c *Collector) RecordMessagesFetched(count int) {
	c.messages.Add(float64(count))
}

// RecordCandidatesExtracted は抽出された候補数を記録する。
func (c *Collector) RecordCandidatesExtracted(count int) {
	c.candidates.Add(float64(count))
}

// RecordArticlesReturned は返却された記事数を記録する。
func (c *Collector) RecordArticlesReturned(count int) {
	c.articles.Add(float64(count))
}

// RecordSeenSuppressed はseenキャッシュで抑制された記事数を記録する。
func (c *Collector) RecordSeenSuppressed(count int) {
	c.seenSuppressed.Add(float64(count))
}

// RecordRunLatency は実行のレイテンシを記録する。
func (c *Collector) RecordRunLatency(duration time.Duration) {
	c.runLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
