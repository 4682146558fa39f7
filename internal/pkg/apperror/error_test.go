package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct{}

func (codedErr) Error() string  { return "coded" }
func (codedErr) AppCode() Code { return CodeValidation }

func TestGetCode(t *testing.T) {
	sentinel := New(CodeNotFound, "employee not found")

	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"direct", sentinel, CodeNotFound},
		{"wrapped", fmt.Errorf("failed to load: %w", sentinel), CodeNotFound},
		{"wrap helper", Wrap(CodeExternalSource, "fetch failed", errors.New("dial tcp")), CodeExternalSource},
		{"coder", fmt.Errorf("ctx: %w", codedErr{}), CodeValidation},
		{"plain", errors.New("boom"), CodeInternal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, GetCode(c.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeExternalSource, "punch source unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "punch source unreachable: connection refused", err.Error())
	assert.True(t, Is(err, CodeExternalSource))
	assert.False(t, Is(err, CodeNotFound))
}
