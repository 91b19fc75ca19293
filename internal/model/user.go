// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Kakao OAuthでの初回ログイン時に作成され、以降のログインごとに
// ニックネーム・プロフィール画像・メールアドレスがKakao側の値で上書きされる。
type User struct {
	ID           string
	KakaoID      string
	Nickname     string
	ProfileImage *string
	Email        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
