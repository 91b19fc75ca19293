// Package auth はKakao OAuth認証フローとログイン処理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ddaykeeper/internal/model"
	"github.com/hitoshi/ddaykeeper/internal/repository"
)

// KakaoProfile はKakaoから取得したユーザー情報を表す。
// AccessTokenはログアウト時のベストエフォートなトークン失効にのみ使う。
type KakaoProfile struct {
	KakaoID      string
	Nickname     string
	ProfileImage *string
	Email        *string
	AccessToken  string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetAuthURL は認可URLを生成する。設定不備の場合はエラーを返す。
	GetAuthURL() (string, error)
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*KakaoProfile, error)
	// RevokeToken はプロバイダー側のアクセストークンを失効させる。
	RevokeToken(ctx context.Context, accessToken string) error
}

// TokenIssuer はログイン成功時のBearerトークン発行インターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// LoginMetrics はログイン結果のメトリクス記録インターフェース。
type LoginMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth    OAuthProvider
	userRepo repository.UserRepository
	issuer   TokenIssuer
	metrics  LoginMetrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(oauth OAuthProvider, userRepo repository.UserRepository, issuer TokenIssuer, metrics LoginMetrics) *Service {
	return &Service{
		oauth:    oauth,
		userRepo: userRepo,
		issuer:   issuer,
		metrics:  metrics,
	}
}

// GetAuthURL はKakaoの認可URLを生成する。
func (s *Service) GetAuthURL() (string, error) {
	return s.oauth.GetAuthURL()
}

// HandleCallback はOAuthコールバックを処理し、Bearerトークンを発行する。
//
// Kakaoはプロフィールの信頼できる源であり、初回ログインに限らず
// 毎回のログインでニックネーム・プロフィール画像・メールアドレスを
// Kakao側の値で上書きする。未登録のkakao_idの場合はユーザーを新規作成する。
// 同一アカウントの同時初回ログインはDBの一意制約で競合し、敗者は
// 勝者の行を読み直してログインを成功させる。
func (s *Service) HandleCallback(ctx context.Context, code string) (string, *model.User, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordFailure()
		return "", nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. ユーザーをupsert
	user, err := s.upsertUser(ctx, profile)
	if err != nil {
		s.recordFailure()
		return "", nil, err
	}

	// 3. Bearerトークンを発行
	tokenString, err := s.issuer.Issue(user)
	if err != nil {
		s.recordFailure()
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	return tokenString, user, nil
}

// Logout はベストエフォートでKakao側のトークンを失効させる。
// 失効の失敗はログに残すだけで、ログアウト自体は常に成功する。
// Bearerトークンはステートレスなため、サーバー側での無効化は行わない。
func (s *Service) Logout(ctx context.Context, kakaoAccessToken string) {
	if kakaoAccessToken == "" {
		return
	}

	if err := s.oauth.RevokeToken(ctx, kakaoAccessToken); err != nil {
		slog.Warn("failed to revoke kakao token",
			slog.String("error", err.Error()),
		)
	}
}

// upsertUser はkakao_idでユーザーを検索し、存在すればプロフィールを更新、
// 存在しなければ新規作成する。
func (s *Service) upsertUser(ctx context.Context, profile *KakaoProfile) (*model.User, error) {
	existing, err := s.userRepo.FindByKakaoID(ctx, profile.KakaoID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if existing != nil {
		nickname := profile.Nickname
		updated, err := s.userRepo.Update(ctx, existing.ID, repository.UpdateUserParams{
			Nickname:     &nickname,
			ProfileImage: profile.ProfileImage,
			Email:        profile.Email,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}

		slog.Info("existing user logged in",
			slog.String("user_id", updated.ID),
		)
		return updated, nil
	}

	now := time.Now()
	newUser := &model.User{
		ID:           uuid.New().String(),
		KakaoID:      profile.KakaoID,
		Nickname:     profile.Nickname,
		ProfileImage: profile.ProfileImage,
		Email:        profile.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeConflict {
			// 同時初回ログインの競合。勝者の行を読み直す。
			winner, findErr := s.userRepo.FindByKakaoID(ctx, profile.KakaoID)
			if findErr != nil {
				return nil, fmt.Errorf("failed to resolve concurrent signup: %w", findErr)
			}
			if winner == nil {
				return nil, fmt.Errorf("failed to resolve concurrent signup: winner row not found")
			}

			slog.Info("concurrent signup resolved to existing user",
				slog.String("user_id", winner.ID),
			)
			return winner, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
	)
	return newUser, nil
}

func (s *Service) recordFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}
