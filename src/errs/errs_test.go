package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := New(RecordNotFound, "lookup 123")
	wrapped := fmt.Errorf("record: %w", base)

	assert.Equal(t, RecordNotFound, KindOf(base))
	assert.Equal(t, RecordNotFound, KindOf(wrapped))
	assert.Equal(t, SystemError, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.True(t, Is(wrapped, RecordNotFound))
	assert.False(t, Is(nil, RecordNotFound))
}

func TestWrapUnwrap(t *testing.T) {
	err := Wrap(ServiceUnavailable, "record api", context.DeadlineExceeded)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "SERVICE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "record api")
}

func TestIsFatal(t *testing.T) {
	fatal := map[Kind]bool{
		SystemError:        true,
		ServiceUnavailable: true,
		DatabaseError:      true,
		NetworkError:       true,
	}
	for _, k := range Kinds {
		assert.Equal(t, fatal[k], k.IsFatal(), string(k))
	}
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, InputTimeout, ParseKind("INPUT_TIMEOUT"))
	assert.Equal(t, SystemError, ParseKind("nope"))
}
