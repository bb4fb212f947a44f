package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/settings"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	Load(ctx context.Context) (settings.PipelineConfig, error)
	Save(ctx context.Context, cfg settings.PipelineConfig) (settings.PipelineConfig, error)
}

// SettingsHandler はパイプライン設定のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetSettings は現在有効なパイプライン設定を返す。
// GET /api/digest/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Load(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cfg)
}

// UpdateSettings は設定を更新する。
// PUT /api/digest/settings
// リクエストボディは現在の設定にマージされるため、部分更新が可能。
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Load(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	saved, err := h.service.Save(r.Context(), cfg)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, saved)
}
