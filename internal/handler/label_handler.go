package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/maildigest/internal/model"
)

// LabelListerInterface はラベルハンドラーが必要とするインターフェース。
type LabelListerInterface interface {
	ListLabels(ctx context.Context) ([]model.Label, error)
}

// LabelHandler はメールプロバイダのラベル一覧のHTTPハンドラー。
// UIのラベル選択に使う。
type LabelHandler struct {
	lister LabelListerInterface
}

// NewLabelHandler はLabelHandlerを生成する。
func NewLabelHandler(lister LabelListerInterface) *LabelHandler {
	return &LabelHandler{lister: lister}
}

// labelsResponse はラベル一覧のAPIレスポンス。
type labelsResponse struct {
	Labels []model.Label `json:"labels"`
}

// GetLabels はラベル一覧を返す。
// GET /api/labels
func (h *LabelHandler) GetLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.lister.ListLabels(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, labelsResponse{Labels: labels})
}
