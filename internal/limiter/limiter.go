// Package limiter wraps OCR engines and correctors with token-bucket rate limits.
package limiter

import (
	"golang.org/x/time/rate"
)

// New returns a limiter allowing perSecond calls per second with a burst of one,
// or nil when perSecond is not positive.
func New(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
