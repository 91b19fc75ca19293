// Package dday はD-DAYエントリのドメインロジックを提供する。
package dday

import (
	"fmt"
	"time"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// DaysUntil は目標日までの残日数を日付演算で求める。
// 両方の時刻をそれぞれのローカル日付の深夜0時に正規化してから差を取るため、
// 時刻成分やタイムゾーンオフセットの影響を受けない。
// 未来は正、当日は0、過去は負。
func DaysUntil(target, now time.Time) int {
	ty, tm, td := target.Date()
	ny, nm, nd := now.Date()

	// UTCの日付に揃えてから割ることでDSTの影響を排除する
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	return int(t.Sub(n) / (24 * time.Hour))
}

// NewCountdown は目標日に対するカウントダウン表示を計算する。
func NewCountdown(target, now time.Time) model.Countdown {
	days := DaysUntil(target, now)

	var text string
	switch {
	case days > 0:
		text = fmt.Sprintf("D-%d", days)
	case days == 0:
		text = "D-DAY"
	default:
		text = fmt.Sprintf("D+%d", -days)
	}

	return model.Countdown{
		DaysRemaining: days,
		DisplayText:   text,
	}
}
