package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v78"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: ErrCodeUnavailable,
		},
		{
			name: "wrapped context deadline",
			err:  fmt.Errorf("transport: %w", context.DeadlineExceeded),
			want: ErrCodeUnavailable,
		},
		{
			name: "stripe 5xx",
			err:  &stripe.Error{HTTPStatusCode: 503, Msg: "service unavailable"},
			want: ErrCodeUnavailable,
		},
		{
			name: "rate limited",
			err:  &stripe.Error{HTTPStatusCode: 429, Code: stripe.ErrorCodeRateLimit},
			want: ErrCodeRateLimited,
		},
		{
			name: "resource missing",
			err:  &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing},
			want: ErrCodeNotFound,
		},
		{
			name: "account invalid",
			err:  &stripe.Error{HTTPStatusCode: 400, Code: stripe.ErrorCodeAccountInvalid},
			want: ErrCodeCapability,
		},
		{
			name: "capability marker in message",
			err:  &stripe.Error{HTTPStatusCode: 400, Msg: "Your destination account needs the transfers capability enabled"},
			want: ErrCodeCapability,
		},
		{
			name: "capability marker in param",
			err:  &stripe.Error{HTTPStatusCode: 400, Param: "requested_capabilities"},
			want: ErrCodeCapability,
		},
		{
			name: "plain invalid request",
			err:  &stripe.Error{HTTPStatusCode: 400, Type: stripe.ErrorTypeInvalidRequest, Msg: "missing amount"},
			want: ErrCodeInvalidRequest,
		},
		{
			name: "unrecognized error",
			err:  errors.New("connection reset"),
			want: ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("test op", tt.err)
			assert.Equal(t, tt.want, CodeOf(got))
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, classify("test op", nil))
	})

	t.Run("original error stays unwrappable", func(t *testing.T) {
		cause := &stripe.Error{HTTPStatusCode: 503}
		classified := classify("test op", cause)
		var sErr *stripe.Error
		assert.ErrorAs(t, classified, &sErr)
	})
}

func TestErrorPredicates(t *testing.T) {
	capErr := &Error{Op: "transfer", Code: ErrCodeCapability}
	assert.True(t, IsCapability(capErr))
	assert.True(t, IsCapability(fmt.Errorf("settlement: %w", capErr)))
	assert.False(t, IsUnavailable(capErr))

	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.True(t, IsNotFound(&Error{Op: "refund", Code: ErrCodeNotFound}))
	assert.False(t, IsCapability(nil))
	assert.False(t, IsCapability(errors.New("boring")))
}
