package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"auth wrapped", errors.Wrap(ErrAuthentication, "login as ap@example.com"), KindAuthentication},
		{"timeout wrapped with fmt", fmt.Errorf("dial: %w", ErrOperationTimeout), KindTimeout},
		{"not connected marked", Mark(errors.New("connection reset by peer"), ErrNotConnected), KindNotConnected},
		{"provider", ErrUnsupportedProvider, KindUnsupportedProvider},
		{"plain", errors.New("boom"), KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestMark_KeepsCause(t *testing.T) {
	err := Mark(context.DeadlineExceeded, ErrOperationTimeout)

	assert.ErrorIs(t, err, ErrOperationTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "mailbox operation timed out: context deadline exceeded", err.Error())
	assert.Nil(t, Mark(nil, ErrOperationTimeout))
}
