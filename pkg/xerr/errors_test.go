package xerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("order not found")

	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, ServerCommonError, CodeOf(base))
	assert.Equal(t, RecordNotFound, CodeOf(Wrap(RecordNotFound, base)))
	assert.Equal(t, Busy, CodeOf(fmt.Errorf("submit: %w", NewErrCode(Busy))))
}

func TestWrapKeepsCause(t *testing.T) {
	base := errors.New("duplicate")
	err := Wrap(Conflict, base)

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "ErrCode:409, Msg:duplicate", err.Error())
	assert.Nil(t, Wrap(Conflict, nil))
}

func TestMapErrMsg(t *testing.T) {
	assert.Equal(t, "busy, retry later", NewErrCode(Busy).(*CodeError).Msg)
	assert.Equal(t, "unknown error", MapErrMsg(999))
}
