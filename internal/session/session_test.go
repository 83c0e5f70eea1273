package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", "storefront", time.Hour)
	id := NewSessionID()

	token, err := m.Issue(id, "STR-ABC123")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SessionID())
	assert.Equal(t, "STR-ABC123", claims.OrderNumber)
}

func TestParseRejectsExpired(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", "storefront", time.Hour).WithTimeFunc(func() time.Time { return issued })

	token, err := m.Issue("s1", "STR-1")
	require.NoError(t, err)

	later := m.WithTimeFunc(func() time.Time { return issued.Add(2 * time.Hour) })
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	token, err := NewManager("other-secret", "storefront", time.Hour).Issue("s1", "STR-1")
	require.NoError(t, err)

	_, err = NewManager("test-secret", "storefront", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = NewManager("test-secret", "elsewhere", time.Hour).Issue("s1", "STR-1")
	require.NoError(t, err)
	_, err = NewManager("test-secret", "storefront", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("test-secret", "storefront", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
