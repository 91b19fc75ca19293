package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// PostgresDDayRepo はPostgreSQLを使用したD-DAYリポジトリ。
type PostgresDDayRepo struct {
	db *sql.DB
}

// NewPostgresDDayRepo はPostgresDDayRepoを生成する。
func NewPostgresDDayRepo(db *sql.DB) *PostgresDDayRepo {
	return &PostgresDDayRepo{db: db}
}

// ListByUserID はユーザーのD-DAY一覧をtarget_date昇順で返す。
func (r *PostgresDDayRepo) ListByUserID(ctx context.Context, userID string) ([]*model.DDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, target_date, description, created_at, updated_at
		 FROM ddays
		 WHERE user_id = $1
		 ORDER BY target_date ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ddays: %w", err)
	}
	defer rows.Close()

	ddays := []*model.DDay{}
	for rows.Next() {
		dday := &model.DDay{}
		if err := rows.Scan(&dday.ID, &dday.UserID, &dday.Title, &dday.TargetDate, &dday.Description, &dday.CreatedAt, &dday.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dday: %w", err)
		}
		ddays = append(ddays, dday)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ddays: %w", err)
	}

	return ddays, nil
}

// FindByID は指定IDのD-DAYを取得する。見つからない場合はnilを返す。
func (r *PostgresDDayRepo) FindByID(ctx context.Context, id string) (*model.DDay, error) {
	dday := &model.DDay{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, target_date, description, created_at, updated_at
		 FROM ddays WHERE id = $1`,
		id,
	).Scan(&dday.ID, &dday.UserID, &dday.Title, &dday.TargetDate, &dday.Description, &dday.CreatedAt, &dday.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dday by ID: %w", err)
	}

	return dday, nil
}

// IsOwner は指定D-DAYが指定ユーザーの所有であるかを1クエリで判定する。
// 存在しないIDに対してはfalseを返す。
func (r *PostgresDDayRepo) IsOwner(ctx context.Context, id, userID string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM ddays WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&found)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check dday ownership: %w", err)
	}

	return true, nil
}

// Create はD-DAYを作成する。
func (r *PostgresDDayRepo) Create(ctx context.Context, dday *model.DDay) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ddays (id, user_id, title, target_date, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dday.ID, dday.UserID, dday.Title, dday.TargetDate, dday.Description, dday.CreatedAt, dday.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dday: %w", err)
	}

	return nil
}

// Update はD-DAYを部分更新し、更新後のD-DAYを返す。
// nilのパラメータはCOALESCEで既存値が維持される。空文字列はそのまま新しい値になる。
func (r *PostgresDDayRepo) Update(ctx context.Context, id string, params UpdateDDayParams) (*model.DDay, error) {
	dday := &model.DDay{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE ddays SET
		   title       = COALESCE($2, title),
		   target_date = COALESCE($3::date, target_date),
		   description = COALESCE($4, description),
		   updated_at  = now()
		 WHERE id = $1
		 RETURNING id, user_id, title, target_date, description, created_at, updated_at`,
		id, params.Title, params.TargetDate, params.Description,
	).Scan(&dday.ID, &dday.UserID, &dday.Title, &dday.TargetDate, &dday.Description, &dday.CreatedAt, &dday.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, model.NewDDayNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update dday: %w", err)
	}

	return dday, nil
}

// Delete は指定IDのD-DAYを削除し、実際に行が削除されたかを返す。
func (r *PostgresDDayRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ddays WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete dday: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var _ DDayRepository = (*PostgresDDayRepo)(nil)
