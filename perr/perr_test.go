package perr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesPageIndexWhenSet(t *testing.T) {
	err := Render(3, errors.New("boom"), "rendering page %d", 3)
	require.Equal(t, "RenderError (page 3): rendering page 3", err.Error())
}

func TestErrorMessageOmitsPageIndexWhenNegative(t *testing.T) {
	err := Config("bad job file %s", "jobs.yaml")
	require.Equal(t, "ConfigError: bad job file jobs.yaml", err.Error())
}

func TestErrorUnwrapsToUnderlyingCause(t *testing.T) {
	cause := errors.New("disk full")
	err := IO(cause, "writing output")
	require.Same(t, cause, errors.Unwrap(err))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	cause := ImageXObject(2, errors.New("bad width"), "reading meta")
	wrapped := fmt.Errorf("redacting page: %w", cause)
	require.True(t, Is(wrapped, KindImageXObject))
	require.False(t, Is(wrapped, KindCache))
}

func TestIsFalseForPlainError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), KindConfig))
}
