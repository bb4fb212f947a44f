// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, mail, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeNoMatchingMessages = "NO_MATCHING_MESSAGES"
	ErrCodeSettingsInvalid    = "SETTINGS_INVALID"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
	ErrCodeFetchFailed        = "FETCH_FAILED"
	ErrCodeDigestNotReady     = "DIGEST_NOT_READY"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewAuthFailedError はメールプロバイダの認証失敗エラーを生成する。
// トークンの拒否・失効はこのサブシステムではリトライしない。
func NewAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("Gmailの認証に失敗しました: %s", reason),
		Category: "auth",
		Action:   "トークンを再発行してから再度お試しください。",
	}
}

// NewNoMatchingMessagesError は対象メールが1件も見つからない場合のエラーを生成する。
func NewNoMatchingMessagesError() *APIError {
	return &APIError{
		Code:     ErrCodeNoMatchingMessages,
		Message:  "条件に一致するメールが見つかりませんでした。",
		Category: "mail",
		Action:   "ラベル名またはフォールバック検索条件を確認してください。",
	}
}

// NewSettingsInvalidError は設定値が不正な場合のエラーを生成する。
func NewSettingsInvalidError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSettingsInvalid,
		Message:  fmt.Sprintf("設定値が不正です: %s", reason),
		Category: "validation",
		Action:   "設定値の範囲を確認してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているフィードのURLを指定してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("取得に失敗しました: %s", reason),
		Category: "mail",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewDigestNotReadyError はキャッシュ済みダイジェストが未生成の場合のエラーを生成する。
func NewDigestNotReadyError() *APIError {
	return &APIError{
		Code:     ErrCodeDigestNotReady,
		Message:  "ダイジェストはまだ生成されていません。",
		Category: "mail",
		Action:   "POST /api/digest/run で生成するか、ワーカーの実行を待ってください。",
	}
}
