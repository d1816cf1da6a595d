package handlers

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// userLimiter throttles gacha draws per user. Idle limiters expire.
type userLimiter struct {
	perMinute int
	limiters  *cache.Cache
}

func newUserLimiter(perMinute int) *userLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &userLimiter{
		perMinute: perMinute,
		limiters:  cache.New(10*time.Minute, 10*time.Minute),
	}
}

func (l *userLimiter) Allow(userID int64) bool {
	k := strconv.FormatInt(userID, 10)
	if v, ok := l.limiters.Get(k); ok {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(k, lim)
		return lim.Allow()
	}

	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	// Add fails when another goroutine stored one first; use theirs.
	if err := l.limiters.Add(k, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.limiters.Get(k); ok {
			lim = v.(*rate.Limiter)
		}
	}
	return lim.Allow()
}
