package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultKakaoAuthURL     = "https://kauth.kakao.com/oauth/authorize"
	defaultKakaoTokenURL    = "https://kauth.kakao.com/oauth/token"
	defaultKakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"
	defaultKakaoLogoutURL   = "https://kapi.kakao.com/v1/user/logout"
)

// kakaoScopes は認可URLに含める要求スコープ。固定。
const kakaoScopes = "profile_nickname,profile_image,account_email"

// KakaoOAuthConfig はKakao OAuthプロバイダーの設定。
// プロセス起動時に1回構築し、参照渡しで使う。ビジネスロジック内で
// 環境変数を直接読むことはしない。
type KakaoOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	LogoutURL   string
}

// KakaoOAuthProvider はKakao OAuth 2.0による認証を提供する。
type KakaoOAuthProvider struct {
	config KakaoOAuthConfig
	client *http.Client
}

// NewKakaoOAuthProvider はKakaoOAuthProviderを生成する。
func NewKakaoOAuthProvider(config KakaoOAuthConfig) *KakaoOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultKakaoAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultKakaoTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultKakaoUserInfoURL
	}
	if config.LogoutURL == "" {
		config.LogoutURL = defaultKakaoLogoutURL
	}
	return &KakaoOAuthProvider{
		config: config,
		client: http.DefaultClient,
	}
}

// GetAuthURL はKakao OAuthの認可URLを生成する。
// クライアントID・シークレット・リダイレクトURIのいずれかが未設定の場合はエラーを返す。
func (p *KakaoOAuthProvider) GetAuthURL() (string, error) {
	if p.config.ClientID == "" || p.config.ClientSecret == "" || p.config.RedirectURI == "" {
		return "", fmt.Errorf("kakao oauth is not configured: client id, client secret and redirect URI are required")
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURI},
		"response_type": {"code"},
		"scope":         {kakaoScopes},
	}
	return p.config.AuthURL + "?" + params.Encode(), nil
}

// kakaoTokenResponse はKakaoのトークンエンドポイントのレスポンス。
type kakaoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// kakaoUserInfo はKakaoのユーザー情報エンドポイントのレスポンス。
type kakaoUserInfo struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
// リトライは行わない。ログインは対話的なパスであり、失敗は即座に
// ユーザーに返して再試行を促すのが正しい。
func (p *KakaoOAuthProvider) ExchangeCode(ctx context.Context, code string) (*KakaoProfile, error) {
	// 1. 認可コードをアクセストークンに交換
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. アクセストークンでユーザー情報を取得
	userInfo, err := p.fetchUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	profile := &KakaoProfile{
		KakaoID:     strconv.FormatInt(userInfo.ID, 10),
		Nickname:    userInfo.Properties.Nickname,
		AccessToken: tokenResp.AccessToken,
	}
	if userInfo.Properties.ProfileImage != "" {
		img := userInfo.Properties.ProfileImage
		profile.ProfileImage = &img
	}
	if userInfo.KakaoAccount.Email != "" {
		email := userInfo.KakaoAccount.Email
		profile.Email = &email
	}

	return profile, nil
}

// RevokeToken はKakao側のアクセストークンを失効させる。
// ベストエフォートであり、呼び出し側は失敗をログに残して握りつぶす。
func (p *KakaoOAuthProvider) RevokeToken(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.LogoutURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke failed with status %d", resp.StatusCode)
	}

	return nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *KakaoOAuthProvider) exchangeToken(ctx context.Context, code string) (*kakaoTokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURI},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp kakaoTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchUserInfo はアクセストークンでKakaoのユーザー情報を取得する。
func (p *KakaoOAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*kakaoUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo kakaoUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.ID == 0 {
		return nil, fmt.Errorf("empty id in user info response")
	}

	return &userInfo, nil
}

// compile-time interface check
var _ OAuthProvider = (*KakaoOAuthProvider)(nil)
