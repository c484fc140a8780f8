package api

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesCode(t *testing.T) {
	err := WrapError(ErrCodeConnectFailed, "connect", syscall.ECONNREFUSED)

	assert.True(t, errors.Is(err, ErrConnectFailed))
	assert.False(t, errors.Is(err, ErrSendFailed))
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED), "cause is reachable")

	wrapped := fmt.Errorf("dial broker: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConnectFailed))
	assert.Equal(t, ErrCodeConnectFailed, CodeOf(wrapped))
}

func TestError_String(t *testing.T) {
	err := WrapError(ErrCodeSendFailed, "send", errors.New("broken pipe"))
	assert.Equal(t, "send: broken pipe", err.Error())

	err = NewError(ErrCodeConnectionAborted, "aborted").WithContext("fd", 7)
	assert.Equal(t, "aborted (context: map[fd:7])", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeOK, CodeOf(nil))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, ErrCodeSocketCreateFailed, CodeOf(ErrSocketCreateFailed))
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "connection aborted", ErrCodeConnectionAborted.String())
	assert.Equal(t, "code(99)", ErrorCode(99).String())
}

func TestEventCategory_String(t *testing.T) {
	assert.Equal(t, "delivery", CategoryDelivery.String())
	assert.Equal(t, "unknown", EventCategory(42).String())
}
