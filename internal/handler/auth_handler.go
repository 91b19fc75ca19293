// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/ddaykeeper/internal/middleware"
	"github.com/hitoshi/ddaykeeper/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// GetAuthURL はKakaoの認可URLを生成する。
	GetAuthURL() (string, error)
	// HandleCallback は認可コードを処理し、Bearerトークンとユーザーを返す。
	HandleCallback(ctx context.Context, code string) (string, *model.User, error)
	// Logout はベストエフォートでKakao側のトークンを失効させる。
	Logout(ctx context.Context, kakaoAccessToken string)
}

// UserFinder はユーザー情報の再取得のためのインターフェース。
// /api/auth/me で最新のユーザー情報を返すために使用する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	users   UserFinder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, users UserFinder) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
	}
}

// callbackRequest はOAuthコールバックリクエストのボディ。
type callbackRequest struct {
	Code string `json:"code"`
}

// logoutRequest はログアウトリクエストのボディ。
// accessTokenはKakao側のトークン失効にのみ使われる任意フィールド。
type logoutRequest struct {
	AccessToken string `json:"accessToken"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID           string  `json:"id"`
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
	Email        *string `json:"email"`
	CreatedAt    string  `json:"createdAt"`
}

// GetAuthURL はKakaoの認可URLを返す。
// GET /api/auth/kakao
func (h *AuthHandler) GetAuthURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.service.GetAuthURL()
	if err != nil {
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewAuthURLError())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"authUrl": authURL,
	})
}

// Callback はOAuthコールバックを処理し、Bearerトークンを発行する。
// POST /api/auth/kakao/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingCodeError())
		return
	}

	if req.Code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingCodeError())
		return
	}

	tokenString, user, err := h.service.HandleCallback(r.Context(), req.Code)
	if err != nil {
		// 上流の失敗詳細はログのみに残し、ユーザーには一般的なメッセージを返す
		handleCallbackError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"token": tokenString,
		"user":  toUserResponse(user),
	})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	// 最新のユーザー情報を返すため、認証ミドルウェア通過後でも再取得する
	current, err := h.users.FindByID(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if current == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"user": toUserResponse(current),
	})
}

// Logout はログアウトを処理する。常に成功する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	// ボディは任意。解析失敗は無視する。
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.service.Logout(r.Context(), req.AccessToken)

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": "ログアウトしました。",
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Nickname:     user.Nickname,
		ProfileImage: user.ProfileImage,
		Email:        user.Email,
		CreatedAt:    user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
