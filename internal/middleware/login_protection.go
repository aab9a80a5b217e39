// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MsgTooManyRequests is shown when the per-IP login rate is exceeded.
const MsgTooManyRequests = "Too many login attempts. Please wait a moment and try again."

const (
	maxLockout        = 24 * time.Hour
	maxTrackedIPs     = 10000
	cleanupInterval   = 10 * time.Minute
	defaultIPRate     = 0.5
	defaultIPBurst    = 5
	defaultMaxFailed  = 5
	defaultLockout    = 15 * time.Minute
	defaultAttemptWin = 15 * time.Minute
)

// LoginProtection throttles login submissions per client IP and locks an
// email out after repeated rejections by the backend. The backend remains
// the authority on credentials; this only slows down guessing through the
// dashboard.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.RWMutex
	attempts map[string]*loginAttempt

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration
	now               func() time.Time
	logger            *slog.Logger
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login submissions per second per IP (default 0.5).
	IPRateLimit float64
	// IPBurst is the burst size for IP rate limiting (default 5).
	IPBurst int
	// MaxFailedAttempts before an email is locked out (default 5).
	MaxFailedAttempts int
	// LockoutDuration is the base lockout; it doubles with each lockout
	// up to 24h (default 15m).
	LockoutDuration time.Duration
	// AttemptWindow is the window for counting failures (default 15m).
	AttemptWindow time.Duration
	// Now overrides the time source. Nil means time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       defaultIPRate,
		IPBurst:           defaultIPBurst,
		MaxFailedAttempts: defaultMaxFailed,
		LockoutDuration:   defaultLockout,
		AttemptWindow:     defaultAttemptWin,
	}
}

// NewLoginProtection creates a login protection instance. Zero config
// values fall back to the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = defaultIPRate
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = defaultIPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = defaultMaxFailed
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockout
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = defaultAttemptWin
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		attempts:          make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               cfg.Now,
		logger:            cfg.Logger,
	}
}

// Run prunes stale entries until ctx is cancelled.
func (lp *LoginProtection) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lp.cleanupStaleEntries()
		}
	}
}

// CheckIPRateLimit reports whether a login submission from ip may proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	key := accountKey(email)

	lp.mu.RLock()
	attempt, exists := lp.attempts[key]
	var until time.Time
	if exists {
		until = attempt.lockedUntil
	}
	lp.mu.RUnlock()

	now := lp.now()
	if exists && now.Before(until) {
		return true, until.Sub(now)
	}
	return false, 0
}

// RecordFailedAttempt records a rejected login. It returns true and the
// lockout duration when this attempt locks the email.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := accountKey(email)

	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := lp.now()
	attempt, exists := lp.attempts[key]
	if !exists {
		attempt = &loginAttempt{}
		lp.attempts[key] = attempt
	}

	if attempt.count == 0 || now.Sub(attempt.firstFailed) > lp.attemptWindow {
		attempt.count = 0
		attempt.firstFailed = now
	}
	attempt.count++
	lp.logger.Debug("login failure recorded", "email", key, "count", attempt.count)

	if attempt.count < lp.maxFailedAttempts {
		return false, 0
	}

	lockDuration := lp.lockoutDuration
	for i := 0; i < attempt.lockouts && lockDuration < maxLockout; i++ {
		lockDuration *= 2
	}
	lockDuration = min(lockDuration, maxLockout)

	attempt.lockedUntil = now.Add(lockDuration)
	attempt.lockouts++
	attempt.count = 0

	lp.logger.Warn("login locked after repeated failures",
		"category", "auth",
		"email", key,
		"lockouts", attempt.lockouts,
		"duration", lockDuration,
	)
	return true, lockDuration
}

// RecordSuccessfulLogin clears the failure history for email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	key := accountKey(email)

	lp.mu.Lock()
	delete(lp.attempts, key)
	lp.mu.Unlock()
}

// RemainingAttempts returns how many failures email may still have before
// it is locked out.
func (lp *LoginProtection) RemainingAttempts(email string) int {
	lp.mu.RLock()
	defer lp.mu.RUnlock()

	attempt, exists := lp.attempts[accountKey(email)]
	if !exists || lp.now().Sub(attempt.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-attempt.count, 0)
}

func (lp *LoginProtection) cleanupStaleEntries() {
	if lp.ipLimiters.clearIfExceeds(maxTrackedIPs) {
		lp.logger.Info("cleared login rate limiters due to size")
	}

	now := lp.now()
	lp.mu.Lock()
	for key, attempt := range lp.attempts {
		if now.After(attempt.lockedUntil) && now.Sub(attempt.firstFailed) > lp.attemptWindow {
			delete(lp.attempts, key)
		}
	}
	lp.mu.Unlock()
}

// Middleware rate limits login submissions per client IP. Only POST
// requests are counted.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				lp.logger.Warn("login rate limit exceeded", "category", "auth", "ip", ip)
				http.Error(w, MsgTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already replaced it with the proxy-reported address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
