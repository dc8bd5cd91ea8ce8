package scrapeerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NewNetwork("GET http://example.com", errors.New("connection refused"))

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrFormNotFound)

	wrapped := fmt.Errorf("run failed: %w", err)
	assert.ErrorIs(t, wrapped, ErrNetwork)
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewStorage("write csv", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWithStage(t *testing.T) {
	err := WithStage(StageSubmit, NewFieldNotFound("searchform", "minAsk"))

	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.Equal(t, StageSubmit, StageOf(err))
	assert.Contains(t, err.Error(), "submit: field_not_found")
	assert.Contains(t, err.Error(), `"minAsk"`)

	// the first stage wins
	again := WithStage(StageWrite, err)
	assert.Equal(t, StageSubmit, StageOf(again))

	cause := errors.New("disk full")
	plain := WithStage(StageWrite, cause)
	assert.Equal(t, "[write: internal] disk full", plain.Error())
	assert.Equal(t, StageWrite, StageOf(plain))
	assert.ErrorIs(t, plain, ErrInternal)
	assert.ErrorIs(t, plain, cause)

	assert.NoError(t, WithStage(StageFetch, nil))
}

func TestWithStageDoesNotMutateOriginal(t *testing.T) {
	orig := NewFormNotFound("searchform")
	_ = WithStage(StageSubmit, orig)
	assert.Equal(t, "", orig.Stage)
}

func TestWithStageClassifiesContextErrors(t *testing.T) {
	err := WithStage(StageFetch, fmt.Errorf("rate limit error: %w", context.Canceled))
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageFetch, StageOf(err))

	err = WithStage(StageSubmit, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StageSubmit, StageOf(err))
}
