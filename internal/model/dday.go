package model

import "time"

// DDay はユーザー所有のカウントダウンエントリを表す。
// target_dateは時刻成分を持たないカレンダー日付として扱う。
type DDay struct {
	ID          string
	UserID      string
	Title       string
	TargetDate  time.Time
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Countdown は目標日までの残日数の計算結果を表す。
// 永続化されず、読み出し時に毎回計算される。
type Countdown struct {
	DaysRemaining int
	DisplayText   string // "D-5" / "D-DAY" / "D+3"
}
