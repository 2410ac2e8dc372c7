package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	t.Run("Formats the operation and cause", func(t *testing.T) {
		err := NewError("vector search", fmt.Errorf("connection refused"))
		assert.Equal(t, "failed to vector search: connection refused", err.Error())
	})

	t.Run("Unwraps to the underlying error", func(t *testing.T) {
		cause := errors.New("no rows in result set")
		err := NewError("scan", cause)

		assert.ErrorIs(t, err, cause, "Expected errors.Is to find the wrapped cause")

		var wrapped *Error
		require.ErrorAs(t, err, &wrapped, "Expected errors.As to extract the wrapper")
		assert.Equal(t, "scan", wrapped.Op)
	})

	t.Run("Wrapping chains preserve the root cause", func(t *testing.T) {
		root := errors.New("context deadline exceeded")
		err := NewError("build cross-reference index", NewError("query", root))

		assert.ErrorIs(t, err, root, "Expected the root cause to survive nesting")
		assert.Contains(t, err.Error(), "failed to build cross-reference index: failed to query")
	})
}
