package eventid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	valid := strings.Repeat("0f", Len)
	ei, err := New(valid)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x0f}, Len), ei.Bytes())

	for _, s := range []string{"", "0f", strings.ToUpper(valid),
		strings.Repeat("zz", Len)} {
		_, err = New(s)
		assert.Error(t, err, s)
	}
	assert.Nil(t, T("zz").Bytes())

	ei, err = FromBytes(bytes.Repeat([]byte{0xab}, Len))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", Len), ei.String())
	_, err = FromBytes([]byte{1})
	assert.Error(t, err)
}
