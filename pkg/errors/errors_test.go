package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

func TestNew(t *testing.T) {
	ae := errors.New(errors.ErrCodeSHGNotFound, "shg not found")

	require.NotNil(t, ae)
	assert.Equal(t, errors.ErrCodeSHGNotFound, ae.Code)
	assert.Equal(t, "shg not found", ae.Message)
	assert.Empty(t, ae.Detail)
	assert.Nil(t, ae.Cause)
}

func TestError_Format(t *testing.T) {
	plain := errors.New(errors.ErrCodeDemandNotFound, "demand centre not found")
	assert.Equal(t, "[SHG_003] demand centre not found", plain.Error())

	detailed := plain.WithDetail("id=9")
	assert.Equal(t, "[SHG_003] demand centre not found: id=9", detailed.Error())
	assert.Empty(t, plain.Detail)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrCodeDatabaseError, "unused"))

	root := stderrors.New("database is locked")
	wrapped := errors.Wrap(root, errors.ErrCodeDatabaseError, "failed to list members")
	assert.Equal(t, errors.ErrCodeDatabaseError, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, root))

	inner := errors.New(errors.ErrCodeSHGNotFound, "not found")
	assert.Equal(t, errors.ErrCodeSHGNotFound, errors.Wrap(inner, errors.CodeUnknown, "context").Code)
	assert.Equal(t, errors.ErrCodeSnapshotLoadFailed, errors.Wrap(inner, errors.ErrCodeSnapshotLoadFailed, "snapshot").Code)

	f := errors.Wrapf(root, errors.ErrCodeDatabaseError, "failed to load shg %d", 4)
	assert.Equal(t, "failed to load shg 4", f.Message)
}

func TestWithCause(t *testing.T) {
	sentinel := errors.New(errors.ErrCodeCacheError, "redis connection failed")
	cause := stderrors.New("connection refused")
	withCause := sentinel.WithCause(cause)

	assert.Nil(t, sentinel.Cause)
	assert.Equal(t, cause, withCause.Cause)
	assert.True(t, stderrors.Is(withCause, sentinel))
	assert.True(t, stderrors.Is(fmt.Errorf("dial: %w", withCause), sentinel))
	assert.False(t, stderrors.Is(errors.New(errors.ErrCodeCacheError, "cache miss"), sentinel))

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(cause))
}

func TestIsCode_WalksTheChain(t *testing.T) {
	inner := errors.New(errors.ErrCodeCacheError, "redis down")
	mid := fmt.Errorf("loading clusters: %w", inner)
	outer := errors.Wrap(mid, errors.ErrCodeSnapshotLoadFailed, "snapshot")

	assert.True(t, errors.IsCode(outer, errors.ErrCodeSnapshotLoadFailed))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeCacheError))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeDatabaseError))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInternal))
	assert.False(t, errors.IsCode(stderrors.New("plain"), errors.ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", errors.New(errors.ErrCodeNotFound, "x"), true},
		{"shg", errors.New(errors.ErrCodeSHGNotFound, "x"), true},
		{"product wrapped", fmt.Errorf("ctx: %w", errors.New(errors.ErrCodeProductNotFound, "x")), true},
		{"demand", errors.New(errors.ErrCodeDemandNotFound, "x"), true},
		{"validation", errors.Validation("x"), false},
		{"stdlib", stderrors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.IsNotFound(tc.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.CodeOf(nil))
	assert.Equal(t, errors.CodeUnknown, errors.CodeOf(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeBadRequest,
		errors.CodeOf(fmt.Errorf("outer: %w", errors.InvalidParam("k must be positive"))))
}

func TestRetryable(t *testing.T) {
	assert.True(t, errors.Retryable(errors.New(errors.ErrCodeAdvisoryRateLimited, "quota")))
	assert.False(t, errors.Retryable(errors.Validation("bad")))
	assert.False(t, errors.Retryable(nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, errors.ExitOK, errors.ExitCode(nil))
	assert.Equal(t, errors.ExitUsage, errors.ExitCode(errors.InvalidParam("unsupported output format")))
	assert.Equal(t, errors.ExitUsage, errors.ExitCode(errors.New(errors.ErrCodeInvalidRecord, "negative quantity")))
	assert.Equal(t, errors.ExitNotFound, errors.ExitCode(errors.New(errors.ErrCodeSHGNotFound, "shg not found")))
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(stderrors.New("disk full")))
}
