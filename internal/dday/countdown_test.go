package dday

import (
	"testing"
	"time"
)

// TestDaysUntil は日付のみの差分計算を検証する。
// 時刻成分に依存せず、カレンダー日付の境界で丸める。
func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name   string
		target time.Time
		now    time.Time
		want   int
	}{
		{
			name:   "five days ahead",
			target: time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
			now:    time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
			want:   5,
		},
		{
			name:   "same day",
			target: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			now:    time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
			want:   0,
		},
		{
			name:   "three days past",
			target: time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC),
			now:    time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC),
			want:   -3,
		},
		{
			name:   "next day just before midnight",
			target: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			now:    time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC),
			want:   1,
		},
		{
			name:   "across month boundary",
			target: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			now:    time.Date(2025, 6, 28, 12, 0, 0, 0, time.UTC),
			want:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysUntil(tt.target, tt.now)
			if got != tt.want {
				t.Errorf("DaysUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestNewCountdown は表示テキストの形式を検証する。
// 未来はD-n、当日はD-DAY、過去はD+n。
func TestNewCountdown(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		target      time.Time
		wantDays    int
		wantDisplay string
	}{
		{
			name:        "future",
			target:      time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
			wantDays:    5,
			wantDisplay: "D-5",
		},
		{
			name:        "today",
			target:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			wantDays:    0,
			wantDisplay: "D-DAY",
		},
		{
			name:        "past",
			target:      time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC),
			wantDays:    -3,
			wantDisplay: "D+3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCountdown(tt.target, now)
			if c.DaysRemaining != tt.wantDays {
				t.Errorf("DaysRemaining = %d, want %d", c.DaysRemaining, tt.wantDays)
			}
			if c.DisplayText != tt.wantDisplay {
				t.Errorf("DisplayText = %q, want %q", c.DisplayText, tt.wantDisplay)
			}
		})
	}
}
