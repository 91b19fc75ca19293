package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/ddaykeeper/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	Limit           int           // ウィンドウあたりの最大リクエスト数
	Window          time.Duration // ウィンドウ幅
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: クライアントごとに15分あたり100リクエスト。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Limit:           100,
		Window:          15 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientWindow はクライアントごとの現在ウィンドウのカウンタを保持する。
type clientWindow struct {
	windowStart time.Time
	count       int
}

// RateLimiter はクライアントIPごとの固定ウィンドウレート制限を管理する。
// token bucketではなく、ウィンドウ開始からWindow経過でカウンタが
// まるごとリセットされる単純な固定ウィンドウカウンタ。
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*clientWindow),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware はグローバルレート制限ミドルウェアを返す。
// 認証前に動作するため、キーにはクライアントIPを使用する。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			allowed, retryAfter := rl.allow(key)
			if !allowed {
				writeRateLimitResponse(w, retryAfter)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("path", r.URL.Path),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// allow は指定クライアントのリクエストを許可するかを判定する。
// 拒否時はウィンドウがリセットされるまでの残り時間を返す。
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw, exists := rl.windows[key]
	if !exists || now.Sub(cw.windowStart) >= rl.config.Window {
		// 新しいウィンドウを開始
		rl.windows[key] = &clientWindow{windowStart: now, count: 1}
		return true, 0
	}

	if cw.count >= rl.config.Limit {
		return false, rl.config.Window - now.Sub(cw.windowStart)
	}

	cw.count++
	return true, 0
}

// WindowCount は現在管理されているウィンドウのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) WindowCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// cleanupLoop はバックグラウンドで期限切れウィンドウを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はウィンドウ開始から1ウィンドウ分以上経過したエントリを削除する。
func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, cw := range rl.windows {
		if now.Sub(cw.windowStart) >= rl.config.Window {
			delete(rl.windows, key)
		}
	}
}

// clientKey はレート制限のキーとなるクライアントIPを求める。
// リバースプロキシ配下を想定し、X-Forwarded-Forの先頭を優先する。
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはウィンドウがリセットされるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, retryAfter time.Duration) {
	retryAfterSec := int(math.Ceil(retryAfter.Seconds()))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:    model.ErrCodeRateLimitExceeded,
		Message: "リクエストが多すぎます。しばらく待ってから再度お試しください。",
	})
}
