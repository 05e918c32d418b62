package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "op and message",
			err:  New(KindUnsupportedFormat, "export", "unsupported export format: %s", "xml"),
			want: "export: unsupported export format: xml",
		},
		{
			name: "with cause",
			err:  Wrap(os.ErrNotExist, KindIO, "open", "failed to open file"),
			want: "open: failed to open file: file does not exist",
		},
		{
			name: "no op",
			err:  New(KindConversion, "", "count column is %s", "DOUBLE"),
			want: "count column is DOUBLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindIO, "open", "failed"))
}

func TestIs(t *testing.T) {
	inner := Wrap(os.ErrPermission, KindIO, "open", "failed to open file")
	outer := Wrap(inner, KindFormat, "metadata", "failed to build metadata")
	wrapped := fmt.Errorf("request: %w", outer)

	assert.True(t, Is(wrapped, KindFormat))
	assert.True(t, Is(wrapped, KindIO))
	assert.False(t, Is(wrapped, KindQueryPlan))
	assert.True(t, errors.Is(wrapped, os.ErrPermission))
	assert.Equal(t, KindFormat, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
