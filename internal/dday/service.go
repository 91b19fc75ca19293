package dday

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ddaykeeper/internal/model"
	"github.com/hitoshi/ddaykeeper/internal/repository"
	"github.com/hitoshi/ddaykeeper/internal/security"
)

// 入力バリデーションの上限値
const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
)

// dateLayout はtarget_dateの入出力形式。カレンダー日付のみで時刻を持たない。
const dateLayout = "2006-01-02"

// DDayInfo はD-DAYエントリとカウントダウン計算結果を結合したドメインオブジェクト。
type DDayInfo struct {
	model.DDay
	Countdown model.Countdown
}

// CreateInput はD-DAY作成の入力。
type CreateInput struct {
	Title       string
	TargetDate  string
	Description *string
}

// UpdateInput はD-DAYの部分更新の入力。
// nilのフィールドは変更されない。空文字列のDescriptionは
// 「空文字列で置き換える」として扱われ、未指定とは区別される。
type UpdateInput struct {
	Title       *string
	TargetDate  *string
	Description *string
}

// Metrics はD-DAY操作のメトリクス記録インターフェース。
type Metrics interface {
	RecordDDayCreated()
	RecordDDayDeleted()
}

// Service はD-DAY管理のサービス層。
// バリデーション、所有権チェック、残日数の算出を担う。
type Service struct {
	repo      repository.DDayRepository
	sanitizer security.TextSanitizerService
	metrics   Metrics
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilでもよい。nowがnilの場合はtime.Nowを使用する。
func NewService(repo repository.DDayRepository, sanitizer security.TextSanitizerService, metrics Metrics, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       now,
	}
}

// List はユーザーのD-DAY一覧をtarget_date昇順、カウントダウン付きで返す。
func (s *Service) List(ctx context.Context, userID string) ([]DDayInfo, error) {
	ddays, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ddays: %w", err)
	}

	now := s.now()
	infos := make([]DDayInfo, len(ddays))
	for i, d := range ddays {
		infos[i] = DDayInfo{
			DDay:      *d,
			Countdown: NewCountdown(d.TargetDate, now),
		}
	}

	return infos, nil
}

// Get は指定IDのD-DAYをカウントダウン付きで返す。
// 存在しないIDはDDAY_NOT_FOUND、他ユーザーの所有はACCESS_DENIED。
func (s *Service) Get(ctx context.Context, userID, id string) (*DDayInfo, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find dday: %w", err)
	}
	if d == nil {
		return nil, model.NewDDayNotFoundError()
	}
	if d.UserID != userID {
		return nil, model.NewAccessDeniedError()
	}

	return &DDayInfo{
		DDay:      *d,
		Countdown: NewCountdown(d.TargetDate, s.now()),
	}, nil
}

// Create は新しいD-DAYを作成する。
// タイトル・目標日は必須。ストレージに触れる前にすべての入力を検証する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*DDayInfo, error) {
	title := strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	if title == "" || input.TargetDate == "" {
		return nil, model.NewMissingRequiredFieldsError()
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, model.NewTitleTooLongError(maxTitleLength)
	}

	targetDate, err := time.Parse(dateLayout, input.TargetDate)
	if err != nil {
		return nil, model.NewInvalidDateError(input.TargetDate)
	}

	description, err := s.cleanDescription(input.Description)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &model.DDay{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		TargetDate:  targetDate,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create dday: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordDDayCreated()
	}

	return &DDayInfo{
		DDay:      *d,
		Countdown: NewCountdown(d.TargetDate, now),
	}, nil
}

// Update は指定IDのD-DAYを部分更新する。
// 所有権ゲートを先に通すため、存在しないIDもACCESS_DENIEDになる。
// 指定されたフィールドのみ変更され、nilのフィールドは保持される。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*DDayInfo, error) {
	owned, err := s.repo.IsOwner(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		return nil, model.NewAccessDeniedError()
	}

	params := repository.UpdateDDayParams{}

	if input.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*input.Title))
		if title == "" {
			return nil, model.NewMissingRequiredFieldsError()
		}
		if len([]rune(title)) > maxTitleLength {
			return nil, model.NewTitleTooLongError(maxTitleLength)
		}
		params.Title = &title
	}

	if input.TargetDate != nil {
		if _, err := time.Parse(dateLayout, *input.TargetDate); err != nil {
			return nil, model.NewInvalidDateError(*input.TargetDate)
		}
		params.TargetDate = input.TargetDate
	}

	if input.Description != nil {
		description, err := s.cleanDescription(input.Description)
		if err != nil {
			return nil, err
		}
		params.Description = description
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	return &DDayInfo{
		DDay:      *updated,
		Countdown: NewCountdown(updated.TargetDate, s.now()),
	}, nil
}

// Delete は指定IDのD-DAYを削除する。
// 所有権ゲートを先に通す。ゲート通過後に行が消えていた場合はDDAY_NOT_FOUND。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	owned, err := s.repo.IsOwner(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		return model.NewAccessDeniedError()
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete dday: %w", err)
	}
	if !deleted {
		return model.NewDDayNotFoundError()
	}

	if s.metrics != nil {
		s.metrics.RecordDDayDeleted()
	}

	return nil
}

// cleanDescription は説明文をサニタイズ・トリムして検証する。
// 空文字列は有効な値（空で置き換える）として保持される。
func (s *Service) cleanDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}

	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*description))
	if len([]rune(cleaned)) > maxDescriptionLength {
		return nil, model.NewDescriptionTooLongError(maxDescriptionLength)
	}
	return &cleaned, nil
}
