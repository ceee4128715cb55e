package membuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnonymous(t *testing.T) {
	data, release, err := Anonymous(4096)
	require.NoError(t, err)
	require.Len(t, data, 4096)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, b)
		}
	}

	data[0], data[4095] = 0xde, 0xad
	require.Equal(t, byte(0xde), data[0])
	require.Equal(t, byte(0xad), data[4095])

	require.NoError(t, release())
	require.NoError(t, release())
}

func TestAnonymousInvalidSize(t *testing.T) {
	_, _, err := Anonymous(0)
	require.Error(t, err)

	_, _, err = Anonymous(-1)
	require.Error(t, err)
}
