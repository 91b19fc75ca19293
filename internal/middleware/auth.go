// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ddaykeeper/internal/model"
	"github.com/hitoshi/ddaykeeper/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// TokenVerifier はBearerトークンの検証に必要なインターフェース。
// token.Issuerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// UserFinder は認証済みユーザーのロードに必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewRequireAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
//
// 状態遷移: トークンなし → UNAUTHORIZED / 期限切れ → TOKEN_EXPIRED /
// 不正 → INVALID_TOKEN / 検証済みだがユーザー行が消えている → USER_NOT_FOUND。
// いずれも401で、ユーザーのロードに成功した場合のみリクエストを通す。
func NewRequireAuthMiddleware(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, apiErr := authenticate(r, verifier, users)
			if apiErr != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalAuthMiddleware は認証の任意変種を返す。
// 有効なトークンがあればユーザーをコンテキストに注入し、
// トークンの不在・期限切れ・不正はすべて握りつぶしてリクエストを通す。
// ログイン状態で挙動が変わるルートに使用する。
func NewOptionalAuthMiddleware(verifier TokenVerifier, users UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, apiErr := authenticate(r, verifier, users)
			if apiErr != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate はトークンの抽出・検証・ユーザーロードの共通チェーン。
// 失敗時は対応するAPIErrorを返す。
func authenticate(r *http.Request, verifier TokenVerifier, users UserFinder) (*model.User, *model.APIError) {
	tokenString := token.ExtractFromHeader(r.Header.Get("Authorization"))
	if tokenString == "" {
		return nil, model.NewUnauthorizedError()
	}

	claims, err := verifier.Verify(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		return nil, model.NewInvalidTokenError()
	}

	user, err := users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("failed to load user for auth",
			slog.String("error", err.Error()),
		)
		return nil, model.NewUserNotFoundError()
	}
	if user == nil {
		// 有効なトークンだが、発行後にユーザーが削除されたケース
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
