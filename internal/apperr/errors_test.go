package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("meme %d not found", 3), KindNotFound},
		{"validation", Validation(cause, "invalid image"), KindValidation},
		{"upstream", Upstream(cause, "gateway call failed"), KindUpstream},
		{"persistence", Persistence(cause, "insert failed"), KindPersistence},
		{"partial", PartialFailure(cause, "old object kept"), KindPartialFailure},
		{"wrapped", fmt.Errorf("update: %w", NotFound("gone")), KindNotFound},
		{"plain", cause, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("bucket missing")

	err := Upstream(cause, "upload %s", "cat.png")
	assert.Equal(t, "upload cat.png: bucket missing", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "Meme not found", NotFound("Meme not found").Error())
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.True(t, Is(fmt.Errorf("x: %w", err), KindUpstream))
	assert.False(t, Is(nil, KindUpstream))
}
