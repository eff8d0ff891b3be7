package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("bad input"), want: KindValidation},
		{name: "not found", err: NotFound("missing"), want: KindNotFound},
		{name: "conflict", err: Conflict("exists"), want: KindConflict},
		{name: "auth", err: Auth("denied"), want: KindAuth},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NotFound("missing")), want: KindNotFound},
		{name: "foreign error", err: errors.New("boom"), want: KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("failed to load todo", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load todo: connection refused", err.Error())
	assert.Equal(t, "upstream", err.Kind.String())
}
