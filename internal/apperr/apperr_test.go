package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(Forbidden("nope")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("lead not found"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestIs_SentinelMatching(t *testing.T) {
	errOwner := New(KindOwnerConflict, "own property")
	wrapped := fmt.Errorf("service: %w", errOwner)

	assert.ErrorIs(t, wrapped, errOwner)
	assert.ErrorIs(t, wrapped, &Error{Kind: KindOwnerConflict})
	assert.NotErrorIs(t, wrapped, &Error{Kind: KindForbidden})
}

func TestPublic_HidesInternalDetails(t *testing.T) {
	assert.Equal(t, "internal server error", Public(Internal(errors.New("dial tcp: refused"))))
	assert.Equal(t, "internal server error", Public(errors.New("raw")))
	assert.Equal(t, `invalid stage "SHIPPED"`, Public(InvalidStage("SHIPPED")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(KindConflict, "duplicate", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "duplicate: cause", err.Error())
	assert.Equal(t, "conflict", err.Kind.String())
}

func TestEnsure(t *testing.T) {
	assert.NoError(t, Ensure(nil))

	nf := NotFound("lead not found")
	assert.Same(t, nf, Ensure(nf))

	err := Ensure(errors.New("db down"))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "db down")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Unauthorized("x"), 401},
		{Forbidden("x"), 403},
		{NotFound("x"), 404},
		{Validation("x"), 400},
		{OwnerConflict("x"), 409},
		{InvalidStage("x"), 400},
		{NoVisitSettings("x"), 400},
		{Conflict("x"), 409},
		{Internal(errors.New("x")), 500},
		{errors.New("plain"), 500},
		{fmt.Errorf("wrapped: %w", NotFound("x")), 404},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
