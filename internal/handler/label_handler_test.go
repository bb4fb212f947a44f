package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/maildigest/internal/model"
)

// mockLabelLister はLabelListerInterfaceのモック。
type mockLabelLister struct {
	listFunc func(ctx context.Context) ([]model.Label, error)
}

func (m *mockLabelLister) ListLabels(ctx context.Context) ([]model.Label, error) {
	return m.listFunc(ctx)
}

func TestLabelHandler_GetLabels(t *testing.T) {
	t.Run("正常系: ラベル一覧を返す", func(t *testing.T) {
		lister := &mockLabelLister{
			listFunc: func(ctx context.Context) ([]model.Label, error) {
				return []model.Label{
					{ID: "Label_1", Name: "뉴스요약"},
					{ID: "Label_2", Name: "仕事"},
				}, nil
			},
		}
		h := NewLabelHandler(lister)

		req := httptest.NewRequest(http.MethodGet, "/api/labels", nil)
		rec := httptest.NewRecorder()
		h.GetLabels(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, 期待値 %d", rec.Code, http.StatusOK)
		}

		var got labelsResponse
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("レスポンスの解析に失敗: %v", err)
		}
		if len(got.Labels) != 2 {
			t.Fatalf("ラベル数 = %d, 期待値 2", len(got.Labels))
		}
		if got.Labels[0].ID != "Label_1" || got.Labels[0].Name != "뉴스요약" {
			t.Errorf("Labels[0] = %+v が期待と異なる", got.Labels[0])
		}
	})

	t.Run("異常系: 認証失敗は401", func(t *testing.T) {
		lister := &mockLabelLister{
			listFunc: func(ctx context.Context) ([]model.Label, error) {
				return nil, model.NewAuthFailedError("トークンの有効期限切れ")
			},
		}
		h := NewLabelHandler(lister)

		req := httptest.NewRequest(http.MethodGet, "/api/labels", nil)
		rec := httptest.NewRecorder()
		h.GetLabels(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, 期待値 %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
