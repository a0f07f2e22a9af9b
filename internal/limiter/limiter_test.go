package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/Lllllllleong/bulktextextractor/internal/limiter"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type countingEngine struct {
	calls int
}

func (e *countingEngine) Name() string { return "counting" }

func (e *countingEngine) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	e.calls++
	return &ocr.Result{Lines: []ocr.Line{{Text: input.Name}}}, nil
}

type echoCorrector struct {
	calls int
}

func (c *echoCorrector) Correct(ctx context.Context, request string) (string, error) {
	c.calls++
	return request, nil
}

func TestNew(t *testing.T) {
	require.Nil(t, limiter.New(0))
	require.Nil(t, limiter.New(-1))
	require.NotNil(t, limiter.New(2))
}

func TestNilLimiterPassesThrough(t *testing.T) {
	e := &countingEngine{}
	c := &echoCorrector{}

	require.Same(t, e, limiter.NewEngine(nil, e))
	require.Same(t, c, limiter.NewCorrector(nil, c))
}

func TestEngineDelegates(t *testing.T) {
	e := &countingEngine{}
	limited := limiter.NewEngine(rate.NewLimiter(rate.Inf, 1), e)

	result, err := limited.Recognize(context.Background(), ocr.Input{Name: "scan.png"})
	require.NoError(t, err)
	require.Equal(t, "scan.png", result.Text())
	require.Equal(t, "counting", limited.Name())
	require.Equal(t, 1, e.calls)
}

func TestCorrectorWaitsForToken(t *testing.T) {
	c := &echoCorrector{}
	limited := limiter.NewCorrector(rate.NewLimiter(rate.Every(time.Hour), 1), c)

	text, err := limited.Correct(context.Background(), "first")
	require.NoError(t, err)
	require.Equal(t, "first", text)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = limited.Correct(ctx, "second")
	require.Error(t, err)
	require.Equal(t, 1, c.calls)
}
