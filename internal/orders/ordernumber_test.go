package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndDecode(t *testing.T) {
	g, err := NewNumberGenerator("salt")
	require.NoError(t, err)
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return issued }

	first, err := g.Generate()
	require.NoError(t, err)
	second, err := g.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "STR-"))
	assert.NotEqual(t, first, second)

	at, seq, err := g.Decode(second)
	require.NoError(t, err)
	assert.True(t, issued.Equal(at))
	assert.Equal(t, int64(2), seq)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	g, err := NewNumberGenerator("salt")
	require.NoError(t, err)

	_, _, err = g.Decode("KHEL-1234")
	assert.ErrorIs(t, err, ErrInvalidOrderNumber)

	other, err := NewNumberGenerator("different")
	require.NoError(t, err)
	number, err := other.Generate()
	require.NoError(t, err)
	_, _, err = g.Decode(number)
	assert.ErrorIs(t, err, ErrInvalidOrderNumber)
}
