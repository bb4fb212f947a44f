// Package gmail はGmail APIへのアクセスを提供する。
// 認証済みのHTTPクライアントを構築し、ラベル一覧・メッセージ検索・
// メッセージ取得をドメインモデルに変換して返す。
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hitoshi/maildigest/internal/model"
)

// user はAPI呼び出しの対象ユーザー。認証済みトークンの持ち主を指す。
const user = "me"

// Client はGmail APIクライアント。
type Client struct {
	srv    *gmail.Service
	logger *slog.Logger
}

// NewClient はcredentialsファイルと保存済みトークンからClientを生成する。
// トークンが存在しない・読めない場合は認証エラーを返す。
// 対話的な認可フローは行わない(サーバプロセスのため)。
func NewClient(ctx context.Context, credentialsFile, tokenFile string, logger *slog.Logger) (*Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, model.NewAuthFailedError("保存済みトークンを読み込めません")
	}

	httpClient := oauthConfig.Client(ctx, token)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{srv: srv, logger: logger}, nil
}

// tokenFromFile は保存済みのOAuth2トークンを読み込む。
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// classifyError はGmail APIのエラーをドメインエラーに変換する。
// 401/403は認証エラーとして扱い、リトライしない。
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return model.NewAuthFailedError(apiErr.Message)
		}
	}
	return err
}

// ListLabels はユーザーのラベル一覧を返す。
func (c *Client) ListLabels(ctx context.Context) ([]model.Label, error) {
	resp, err := c.srv.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", classifyError(err))
	}

	labels := make([]model.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, model.Label{ID: l.Id, Name: l.Name})
	}
	return labels, nil
}

// ListMessageIDs は条件に一致するメッセージIDを新しい順に返す。
// labelIDが空の場合はqueryによる検索となる。
func (c *Client) ListMessageIDs(ctx context.Context, labelID, query string, max int64) ([]string, error) {
	call := c.srv.Users.Messages.List(user).MaxResults(max).Context(ctx)
	if labelID != "" {
		call = call.LabelIds(labelID)
	} else {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", classifyError(err))
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage はメッセージをfull形式で取得し、ヘッダとMIMEパートツリーを
// ドメインモデルに変換して返す。本文はbase64url符号化のまま保持される。
func (c *Client) GetMessage(ctx context.Context, id string) (model.RawMessage, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.RawMessage{}, fmt.Errorf("failed to get message %s: %w", id, classifyError(err))
	}

	raw := model.RawMessage{
		ID:      msg.Id,
		Headers: map[string]string{},
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			raw.Headers[h.Name] = h.Value
		}
		raw.Payload = convertPart(msg.Payload)
	}
	return raw, nil
}

// convertPart はGmail APIのMessagePartをドメインモデルに再帰変換する。
func convertPart(p *gmail.MessagePart) model.MessagePart {
	part := model.MessagePart{MimeType: p.MimeType}
	if p.Body != nil {
		part.BodyData = p.Body.Data
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}
