package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Status derived kinds", func(t *testing.T) {
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(apperror.BadRequest("bad")))
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(apperror.NotFound("missing")))
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(apperror.Conflict("dup")))
		assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(apperror.Unauthorized("no")))
	})

	t.Run("Wrapped errors keep their kind", func(t *testing.T) {
		err := fmt.Errorf("listing: %w", apperror.Remote(errors.New("dial tcp")))
		assert.True(t, apperror.Is(err, apperror.KindRemote))

		var appErr *apperror.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusServiceUnavailable, appErr.Code)
		assert.EqualError(t, errors.Unwrap(appErr), "dial tcp")
	})

	t.Run("Plain errors are internal", func(t *testing.T) {
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
		assert.False(t, apperror.Is(nil, apperror.KindInternal))
	})
}
