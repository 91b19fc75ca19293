package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// pqUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pqUniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kakao_id, nickname, profile_image, email, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.KakaoID, &user.Nickname, &user.ProfileImage, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByKakaoID はKakaoのユーザーIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByKakaoID(ctx context.Context, kakaoID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kakao_id, nickname, profile_image, email, created_at, updated_at
		 FROM users WHERE kakao_id = $1`,
		kakaoID,
	).Scan(&user.ID, &user.KakaoID, &user.Nickname, &user.ProfileImage, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by kakao ID: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
// kakao_idの一意制約違反はmodel.ErrCodeConflictのAPIErrorとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, kakao_id, nickname, profile_image, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.KakaoID, user.Nickname, user.ProfileImage, user.Email, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return model.NewConflictError(user.KakaoID)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Update はユーザーのプロフィールを部分更新し、更新後のユーザーを返す。
// nilのパラメータはCOALESCEで既存値が維持される。
func (r *PostgresUserRepo) Update(ctx context.Context, id string, params UpdateUserParams) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET
		   nickname      = COALESCE($2, nickname),
		   profile_image = COALESCE($3, profile_image),
		   email         = COALESCE($4, email),
		   updated_at    = now()
		 WHERE id = $1
		 RETURNING id, kakao_id, nickname, profile_image, email, created_at, updated_at`,
		id, params.Nickname, params.ProfileImage, params.Email,
	).Scan(&user.ID, &user.KakaoID, &user.Nickname, &user.ProfileImage, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
