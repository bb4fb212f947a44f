// Package handler はHTTP APIのハンドラー群を提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/pipeline"
)

// DigestRunnerInterface はダイジェストハンドラーが必要とする実行インターフェース。
type DigestRunnerInterface interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// DigestStoreInterface は最新ダイジェストのキャッシュインターフェース。
type DigestStoreInterface interface {
	Save(ctx context.Context, result *pipeline.Result) error
	Latest(ctx context.Context) (*pipeline.Result, error)
}

// DigestHandler はダイジェスト生成・取得のHTTPハンドラー。
type DigestHandler struct {
	runner DigestRunnerInterface
	store  DigestStoreInterface
}

// NewDigestHandler はDigestHandlerを生成する。
func NewDigestHandler(runner DigestRunnerInterface, store DigestStoreInterface) *DigestHandler {
	return &DigestHandler{
		runner: runner,
		store:  store,
	}
}

// RunDigest はパイプラインを即時実行する。
// POST /api/digest/run?exclude_seen=false でseen抑制を無効化できる(既定は有効)。
// 成功した結果はキャッシュにも保存され、以後のGET /api/digestで返される。
func (h *DigestHandler) RunDigest(w http.ResponseWriter, r *http.Request) {
	opts := pipeline.DefaultOptions()
	if r.URL.Query().Get("exclude_seen") == "false" {
		opts.ExcludeSeen = false
	}

	result, err := h.runner.Run(r.Context(), opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.store.Save(r.Context(), result); err != nil {
		// キャッシュ更新の失敗で実行結果の返却は妨げない
		slog.Error("failed to cache digest result",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// GetDigest は最後に生成されたダイジェストを返す。
// GET /api/digest
func (h *DigestHandler) GetDigest(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.Latest(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case model.ErrCodeNoMatchingMessages, model.ErrCodeDigestNotReady:
		return http.StatusNotFound
	case model.ErrCodeSettingsInvalid, model.ErrCodeSSRFBlocked:
		return http.StatusBadRequest
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
