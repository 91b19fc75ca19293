// Package token はステートレスなBearerトークンの発行・検証を提供する。
//
// トークンはHS256署名のJWTで、ローカルユーザーIDとKakaoユーザーIDを含む。
// サーバー側に失効リストは持たない。ログアウトはクライアント側での
// トークン破棄のみで完結する。
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// 検証失敗は期限切れとそれ以外の2状態のみ。
var (
	// ErrTokenExpired は有効期限切れのトークンに対して返る。
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenInvalid は署名・構造が不正なトークンに対して返る。
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims は検証済みトークンから取り出した内容を表す。
type Claims struct {
	UserID  string
	KakaoID string
}

// jwtClaims はJWTのエンコードに使う内部クレーム型。
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	KakaoID string `json:"kakao_id"`
}

// Issuer はトークンの発行と検証を行う。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。nowがnilの場合はtime.Nowを使用する。
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
	}
}

// Issue はユーザーに対するBearerトークンを発行する。
// 有効期限は発行時刻 + TTL。
func (i *Issuer) Issue(user *model.User) (string, error) {
	now := i.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:  user.ID,
		KakaoID: user.KakaoID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 期限切れはErrTokenExpired、それ以外の検証失敗はすべてErrTokenInvalid。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		UserID:  parsed.UserID,
		KakaoID: parsed.KakaoID,
	}, nil
}

// ExtractFromHeader はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが「Bearer <token>」のちょうど2要素でない場合は空文字列を返す。
// トークンの不在は正常系であり、エラーにはしない。
func ExtractFromHeader(headerValue string) string {
	parts := strings.Split(headerValue, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
