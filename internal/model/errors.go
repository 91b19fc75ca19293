package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Codeは機械可読なエラータグで、HTTPレスポンスの"error"フィールドにそのまま載る。
// Messageはユーザー向け文言であり、契約の一部ではない。
type APIError struct {
	Code    string
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeTokenExpired          = "TOKEN_EXPIRED"
	ErrCodeInvalidToken          = "INVALID_TOKEN"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeMissingCode           = "MISSING_CODE"
	ErrCodeAuthURLError          = "AUTH_URL_ERROR"
	ErrCodeCallbackError         = "CALLBACK_ERROR"
	ErrCodeConflict              = "CONFLICT"
	ErrCodeInvalidID             = "INVALID_ID"
	ErrCodeAccessDenied          = "ACCESS_DENIED"
	ErrCodeDDayNotFound          = "DDAY_NOT_FOUND"
	ErrCodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidDate           = "INVALID_DATE"
	ErrCodeTitleTooLong          = "TITLE_TOO_LONG"
	ErrCodeDescriptionTooLong    = "DESCRIPTION_TOO_LONG"
	ErrCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "ログインが必要です。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:    ErrCodeTokenExpired,
		Message: "ログインの有効期限が切れました。再度ログインしてください。",
	}
}

// NewInvalidTokenError は不正トークンエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidToken,
		Message: "無効なトークンです。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
// 有効なトークンを持つが既に削除されたユーザーのケースも含む。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "ユーザーが見つかりません。",
	}
}

// NewMissingCodeError は認可コード未指定エラーを生成する。
func NewMissingCodeError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingCode,
		Message: "認可コードが必要です。",
	}
}

// NewAuthURLError は認可URL生成失敗エラーを生成する。
func NewAuthURLError() *APIError {
	return &APIError{
		Code:    ErrCodeAuthURLError,
		Message: "認可URLの生成に失敗しました。",
	}
}

// NewCallbackError はOAuthコールバック処理失敗エラーを生成する。
// 上流の失敗詳細はログのみに残し、ユーザーには一般的な文言を返す。
func NewCallbackError() *APIError {
	return &APIError{
		Code:    ErrCodeCallbackError,
		Message: "ログイン処理に失敗しました。再度お試しください。",
	}
}

// NewConflictError は一意制約違反エラーを生成する。
// 同一kakao_idでの同時初回ログインで敗者側に返る。
func NewConflictError(kakaoID string) *APIError {
	return &APIError{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf("既に登録済みのKakaoアカウントです: %s", kakaoID),
	}
}

// NewInvalidIDError は不正なIDエラーを生成する。
func NewInvalidIDError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidID,
		Message: "有効なD-DAY IDではありません。",
	}
}

// NewAccessDeniedError は所有権のないエントリへのアクセスエラーを生成する。
func NewAccessDeniedError() *APIError {
	return &APIError{
		Code:    ErrCodeAccessDenied,
		Message: "このD-DAYにアクセスする権限がありません。",
	}
}

// NewDDayNotFoundError はD-DAYが見つからない場合のエラーを生成する。
func NewDDayNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeDDayNotFound,
		Message: "D-DAYが見つかりません。",
	}
}

// NewMissingRequiredFieldsError は必須フィールド未指定エラーを生成する。
func NewMissingRequiredFieldsError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingRequiredFields,
		Message: "タイトルと目標日は必須です。",
	}
}

// NewInvalidDateError は不正な日付形式エラーを生成する。
func NewInvalidDateError(value string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidDate,
		Message: fmt.Sprintf("有効な日付形式ではありません: %s", value),
	}
}

// NewTitleTooLongError はタイトルの長さ超過エラーを生成する。
func NewTitleTooLongError(max int) *APIError {
	return &APIError{
		Code:    ErrCodeTitleTooLong,
		Message: fmt.Sprintf("タイトルは%d文字以内で入力してください。", max),
	}
}

// NewDescriptionTooLongError は説明文の長さ超過エラーを生成する。
func NewDescriptionTooLongError(max int) *APIError {
	return &APIError{
		Code:    ErrCodeDescriptionTooLong,
		Message: fmt.Sprintf("説明文は%d文字以内で入力してください。", max),
	}
}
