package digest

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/maildigest/internal/pipeline"
)

// Runner はダイジェストパイプラインの実行インターフェース。
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// Worker は一定間隔でダイジェストを生成し、最新結果をStoreに保存する。
type Worker struct {
	runner Runner
	store  *Store
	logger *slog.Logger
}

// NewWorker はWorkerの新しいインスタンスを生成する。
func NewWorker(runner Runner, store *Store, logger *slog.Logger) *Worker {
	return &Worker{
		runner: runner,
		store:  store,
		logger: logger,
	}
}

// Start は指定間隔のティッカーでワーカーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
// ワーカー経由の実行は常にseen抑制なし(ExcludeSeen=false)で行う。
// 自動実行がseenを消費すると、利用者が手動実行したときに
// 新着記事が空になってしまうため。
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("ダイジェストワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ダイジェストワーカーを停止しました")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce はダイジェストを1回生成して保存する。
// 失敗はログに残すのみで、次のティックで再試行される。
func (w *Worker) RunOnce(ctx context.Context) {
	result, err := w.runner.Run(ctx, pipeline.Options{ExcludeSeen: false})
	if err != nil {
		w.logger.Error("ダイジェスト生成に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := w.store.Save(ctx, result); err != nil {
		w.logger.Error("ダイジェストの保存に失敗しました",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("ダイジェストを更新しました",
		slog.String("run_id", result.RunID),
		slog.Int("article_count", len(result.Articles)),
	)
}
