// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// UpdateUserParams はユーザーの部分更新パラメータ。
// nilのフィールドは変更されない。
type UpdateUserParams struct {
	Nickname     *string
	ProfileImage *string
	Email        *string
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByKakaoID はKakaoのユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByKakaoID(ctx context.Context, kakaoID string) (*model.User, error)

	// Create はユーザーを作成する。
	// kakao_idの一意制約違反の場合はmodel.ErrCodeConflictのAPIErrorを返す。
	// 同時初回ログインの競合は事前読み取りではなくこの制約で解決される。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィールを部分更新し、更新後のユーザーを返す。
	// 指定IDが存在しない場合はmodel.ErrCodeUserNotFoundのAPIErrorを返す。
	Update(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
}

// UpdateDDayParams はD-DAYの部分更新パラメータ。
// nilのフィールドは変更されない。空文字列は「空文字列で置き換える」として
// 扱われ、未指定とは区別される。
type UpdateDDayParams struct {
	Title       *string
	TargetDate  *string // "2006-01-02" 形式。パース済みであることは呼び出し側が保証する
	Description *string
}

// DDayRepository はD-DAYデータの永続化インターフェース。
type DDayRepository interface {
	// ListByUserID はユーザーのD-DAY一覧をtarget_date昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.DDay, error)

	// FindByID は指定IDのD-DAYを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.DDay, error)

	// IsOwner は指定D-DAYが指定ユーザーの所有であるかを1クエリで判定する。
	// 存在しないIDに対してはfalseを返す。変更・削除前のゲートとして使用する。
	IsOwner(ctx context.Context, id, userID string) (bool, error)

	// Create はD-DAYを作成する。
	Create(ctx context.Context, dday *model.DDay) error

	// Update はD-DAYを部分更新し、更新後のD-DAYを返す。
	// 指定IDが存在しない場合はmodel.ErrCodeDDayNotFoundのAPIErrorを返す。
	Update(ctx context.Context, id string, params UpdateDDayParams) (*model.DDay, error)

	// Delete は指定IDのD-DAYを削除し、実際に行が削除されたかを返す。
	// 既に存在しないIDの削除はfalseを返すだけでエラーにはならない。
	Delete(ctx context.Context, id string) (bool, error)
}
