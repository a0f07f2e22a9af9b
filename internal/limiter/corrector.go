package limiter

import (
	"context"

	"github.com/Lllllllleong/bulktextextractor/internal/corrector"

	"golang.org/x/time/rate"
)

type limitedCorrector struct {
	limiter   *rate.Limiter
	corrector corrector.Corrector
}

// NewCorrector limits calls to c. A nil limiter returns c unchanged.
func NewCorrector(l *rate.Limiter, c corrector.Corrector) corrector.Corrector {
	if l == nil {
		return c
	}

	return &limitedCorrector{
		limiter:   l,
		corrector: c,
	}
}

func (p *limitedCorrector) Correct(ctx context.Context, request string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	return p.corrector.Correct(ctx, request)
}
