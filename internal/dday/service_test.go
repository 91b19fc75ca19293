package dday

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/ddaykeeper/internal/model"
	"github.com/hitoshi/ddaykeeper/internal/repository"
	"github.com/hitoshi/ddaykeeper/internal/security"
)

// --- モック ---

type mockDDayRepo struct {
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.DDay, error)
	findByIDFn     func(ctx context.Context, id string) (*model.DDay, error)
	isOwnerFn      func(ctx context.Context, id, userID string) (bool, error)
	createFn       func(ctx context.Context, dday *model.DDay) error
	updateFn       func(ctx context.Context, id string, params repository.UpdateDDayParams) (*model.DDay, error)
	deleteFn       func(ctx context.Context, id string) (bool, error)
}

func (m *mockDDayRepo) ListByUserID(ctx context.Context, userID string) ([]*model.DDay, error) {
	return m.listByUserIDFn(ctx, userID)
}
func (m *mockDDayRepo) FindByID(ctx context.Context, id string) (*model.DDay, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockDDayRepo) IsOwner(ctx context.Context, id, userID string) (bool, error) {
	return m.isOwnerFn(ctx, id, userID)
}
func (m *mockDDayRepo) Create(ctx context.Context, dday *model.DDay) error {
	return m.createFn(ctx, dday)
}
func (m *mockDDayRepo) Update(ctx context.Context, id string, params repository.UpdateDDayParams) (*model.DDay, error) {
	return m.updateFn(ctx, id, params)
}
func (m *mockDDayRepo) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

type mockMetrics struct {
	created int
	deleted int
}

func (m *mockMetrics) RecordDDayCreated() { m.created++ }
func (m *mockMetrics) RecordDDayDeleted() { m.deleted++ }

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
}

func newTestService(repo *mockDDayRepo, metrics *mockMetrics) *Service {
	var m Metrics
	if metrics != nil {
		m = metrics
	}
	return NewService(repo, security.NewTextSanitizer(), m, fixedNow)
}

func strPtr(s string) *string { return &s }

// --- Create ---

// TestCreate_Success は有効な入力でD-DAYが作成され、
// カウントダウンが計算されることを検証する。
func TestCreate_Success(t *testing.T) {
	var created *model.DDay
	repo := &mockDDayRepo{
		createFn: func(ctx context.Context, dday *model.DDay) error {
			created = dday
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := newTestService(repo, metrics)

	info, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      "結婚式",
		TargetDate: "2025-06-06",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created == nil {
		t.Fatal("repo.Create was not called")
	}
	if info.Title != "結婚式" {
		t.Errorf("Title = %q, want %q", info.Title, "結婚式")
	}
	if info.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", info.UserID, "user-1")
	}
	if info.ID == "" {
		t.Error("expected generated ID")
	}
	if info.Countdown.DisplayText != "D-5" {
		t.Errorf("DisplayText = %q, want %q", info.Countdown.DisplayText, "D-5")
	}
	if metrics.created != 1 {
		t.Errorf("metrics.created = %d, want 1", metrics.created)
	}
}

// TestCreate_SanitizesTitle はタイトルのHTMLマークアップが保存前に除去されることを検証する。
func TestCreate_SanitizesTitle(t *testing.T) {
	repo := &mockDDayRepo{
		createFn: func(ctx context.Context, dday *model.DDay) error { return nil },
	}
	svc := newTestService(repo, nil)

	info, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      "<script>alert(1)</script>記念日",
		TargetDate: "2025-12-25",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if info.Title != "記念日" {
		t.Errorf("Title = %q, want %q", info.Title, "記念日")
	}
}

// TestCreate_MissingFields はタイトルまたは目標日が欠けている場合の検証エラーを確認する。
func TestCreate_MissingFields(t *testing.T) {
	svc := newTestService(&mockDDayRepo{}, nil)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty title", CreateInput{Title: "", TargetDate: "2025-12-25"}},
		{"whitespace title", CreateInput{Title: "   ", TargetDate: "2025-12-25"}},
		{"markup-only title", CreateInput{Title: "<b></b>", TargetDate: "2025-12-25"}},
		{"empty date", CreateInput{Title: "記念日", TargetDate: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tt.input)
			assertErrorCode(t, err, model.ErrCodeMissingRequiredFields)
		})
	}
}

// TestCreate_InvalidDate は日付として解析できない入力の検証エラーを確認する。
func TestCreate_InvalidDate(t *testing.T) {
	svc := newTestService(&mockDDayRepo{}, nil)

	tests := []string{"not-a-date", "2025/12/25", "2025-13-01", "2025-02-30"}
	for _, date := range tests {
		t.Run(date, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", CreateInput{
				Title:      "記念日",
				TargetDate: date,
			})
			assertErrorCode(t, err, model.ErrCodeInvalidDate)
		})
	}
}

// TestCreate_TitleTooLong は100文字を超えるタイトルの検証エラーを確認する。
// 境界値: ちょうど100文字は許容される。
func TestCreate_TitleTooLong(t *testing.T) {
	repo := &mockDDayRepo{
		createFn: func(ctx context.Context, dday *model.DDay) error { return nil },
	}
	svc := newTestService(repo, nil)

	longTitle := make([]rune, maxTitleLength+1)
	for i := range longTitle {
		longTitle[i] = 'あ'
	}

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      string(longTitle),
		TargetDate: "2025-12-25",
	})
	assertErrorCode(t, err, model.ErrCodeTitleTooLong)

	// ちょうど100文字は許容
	_, err = svc.Create(context.Background(), "user-1", CreateInput{
		Title:      string(longTitle[:maxTitleLength]),
		TargetDate: "2025-12-25",
	})
	if err != nil {
		t.Errorf("exactly %d runes should be accepted, got error: %v", maxTitleLength, err)
	}
}

// TestCreate_DescriptionTooLong は500文字を超える説明文の検証エラーを確認する。
func TestCreate_DescriptionTooLong(t *testing.T) {
	svc := newTestService(&mockDDayRepo{}, nil)

	longDesc := make([]rune, maxDescriptionLength+1)
	for i := range longDesc {
		longDesc[i] = 'あ'
	}
	desc := string(longDesc)

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:       "記念日",
		TargetDate:  "2025-12-25",
		Description: &desc,
	})
	assertErrorCode(t, err, model.ErrCodeDescriptionTooLong)
}

// --- Get ---

// TestGet_Success は自身のD-DAYがカウントダウン付きで返ることを検証する。
func TestGet_Success(t *testing.T) {
	repo := &mockDDayRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DDay, error) {
			return &model.DDay{
				ID:         id,
				UserID:     "user-1",
				Title:      "記念日",
				TargetDate: time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	svc := newTestService(repo, nil)

	info, err := svc.Get(context.Background(), "user-1", "dday-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if info.Countdown.DaysRemaining != 5 {
		t.Errorf("DaysRemaining = %d, want 5", info.Countdown.DaysRemaining)
	}
}

// TestGet_NotFound は存在しないIDがDDAY_NOT_FOUNDになることを検証する。
func TestGet_NotFound(t *testing.T) {
	repo := &mockDDayRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DDay, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Get(context.Background(), "user-1", "missing")
	assertErrorCode(t, err, model.ErrCodeDDayNotFound)
}

// TestGet_AccessDenied は他ユーザー所有のD-DAYがACCESS_DENIEDになることを検証する。
func TestGet_AccessDenied(t *testing.T) {
	repo := &mockDDayRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.DDay, error) {
			return &model.DDay{ID: id, UserID: "other-user"}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Get(context.Background(), "user-1", "dday-1")
	assertErrorCode(t, err, model.ErrCodeAccessDenied)
}

// --- List ---

// TestList_AnnotatesCountdown は一覧の各エントリにカウントダウンが付与されることを検証する。
func TestList_AnnotatesCountdown(t *testing.T) {
	repo := &mockDDayRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.DDay, error) {
			return []*model.DDay{
				{ID: "a", UserID: userID, TargetDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
				{ID: "b", UserID: userID, TargetDate: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	svc := newTestService(repo, nil)

	infos, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}
	if infos[0].Countdown.DisplayText != "D-DAY" {
		t.Errorf("infos[0].DisplayText = %q, want D-DAY", infos[0].Countdown.DisplayText)
	}
	if infos[1].Countdown.DisplayText != "D-10" {
		t.Errorf("infos[1].DisplayText = %q, want D-10", infos[1].Countdown.DisplayText)
	}
}

// TestList_Empty はD-DAYを持たないユーザーに空スライスが返ることを検証する。
func TestList_Empty(t *testing.T) {
	repo := &mockDDayRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]*model.DDay, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, nil)

	infos, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("len(infos) = %d, want 0", len(infos))
	}
}

// --- Update ---

// TestUpdate_PartialFields は指定フィールドのみが更新パラメータに渡ることを検証する。
func TestUpdate_PartialFields(t *testing.T) {
	var gotParams repository.UpdateDDayParams
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
		updateFn: func(ctx context.Context, id string, params repository.UpdateDDayParams) (*model.DDay, error) {
			gotParams = params
			return &model.DDay{
				ID:         id,
				UserID:     "user-1",
				Title:      "新タイトル",
				TargetDate: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", "dday-1", UpdateInput{
		Title: strPtr("新タイトル"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if gotParams.Title == nil || *gotParams.Title != "新タイトル" {
		t.Errorf("params.Title = %v, want 新タイトル", gotParams.Title)
	}
	if gotParams.TargetDate != nil {
		t.Error("params.TargetDate should be nil when not supplied")
	}
	if gotParams.Description != nil {
		t.Error("params.Description should be nil when not supplied")
	}
}

// TestUpdate_EmptyDescriptionReplaces は空文字列のdescriptionが
// 「空で置き換える」として未指定と区別されることを検証する。
func TestUpdate_EmptyDescriptionReplaces(t *testing.T) {
	var gotParams repository.UpdateDDayParams
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
		updateFn: func(ctx context.Context, id string, params repository.UpdateDDayParams) (*model.DDay, error) {
			gotParams = params
			return &model.DDay{ID: id, UserID: "user-1"}, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", "dday-1", UpdateInput{
		Description: strPtr(""),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if gotParams.Description == nil {
		t.Fatal("params.Description should be non-nil for empty string input")
	}
	if *gotParams.Description != "" {
		t.Errorf("params.Description = %q, want empty string", *gotParams.Description)
	}
}

// TestUpdate_NotOwned は所有していないIDへの更新がACCESS_DENIEDになることを検証する。
// 存在しないIDも所有権ゲートで同じ結果になる。
func TestUpdate_NotOwned(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", "dday-1", UpdateInput{
		Title: strPtr("新タイトル"),
	})
	assertErrorCode(t, err, model.ErrCodeAccessDenied)
}

// TestUpdate_InvalidDate は解析できない日付の更新が検証エラーになることを検証する。
func TestUpdate_InvalidDate(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", "dday-1", UpdateInput{
		TargetDate: strPtr("invalid"),
	})
	assertErrorCode(t, err, model.ErrCodeInvalidDate)
}

// TestUpdate_EmptyTitle はタイトルを空にする更新が拒否されることを検証する。
func TestUpdate_EmptyTitle(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.Update(context.Background(), "user-1", "dday-1", UpdateInput{
		Title: strPtr("   "),
	})
	assertErrorCode(t, err, model.ErrCodeMissingRequiredFields)
}

// --- Delete ---

// TestDelete_Success は所有者による削除が成功しメトリクスが記録されることを検証する。
func TestDelete_Success(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return true, nil
		},
	}
	metrics := &mockMetrics{}
	svc := newTestService(repo, metrics)

	if err := svc.Delete(context.Background(), "user-1", "dday-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if metrics.deleted != 1 {
		t.Errorf("metrics.deleted = %d, want 1", metrics.deleted)
	}
}

// TestDelete_NotOwned は所有していないIDの削除がACCESS_DENIEDになることを検証する。
func TestDelete_NotOwned(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.Delete(context.Background(), "user-1", "dday-1")
	assertErrorCode(t, err, model.ErrCodeAccessDenied)
}

// TestDelete_RowGone は所有権ゲート通過後に行が消えていた場合のDDAY_NOT_FOUNDを検証する。
func TestDelete_RowGone(t *testing.T) {
	repo := &mockDDayRepo{
		isOwnerFn: func(ctx context.Context, id, userID string) (bool, error) {
			return true, nil
		},
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.Delete(context.Background(), "user-1", "dday-1")
	assertErrorCode(t, err, model.ErrCodeDDayNotFound)
}

// --- ヘルパー ---

func assertErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", wantCode)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %s, want %s", apiErr.Code, wantCode)
	}
}
