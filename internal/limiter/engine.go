package limiter

import (
	"context"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"

	"golang.org/x/time/rate"
)

type limitedEngine struct {
	limiter *rate.Limiter
	engine  ocr.Engine
}

// NewEngine limits calls to e. A nil limiter returns e unchanged.
func NewEngine(l *rate.Limiter, e ocr.Engine) ocr.Engine {
	if l == nil {
		return e
	}

	return &limitedEngine{
		limiter: l,
		engine:  e,
	}
}

func (p *limitedEngine) Name() string {
	return p.engine.Name()
}

func (p *limitedEngine) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return p.engine.Recognize(ctx, input)
}
