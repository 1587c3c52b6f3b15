package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionManager(t *testing.T) {
	m := NewSessionManager()

	a := m.Issue("alice")
	b := m.Issue("alice")
	assert.NotEqual(t, a, b)

	owner, ok := m.Resolve(a)
	assert.True(t, ok)
	assert.Equal(t, "alice", owner)

	m.Revoke(a)
	_, ok = m.Resolve(a)
	assert.False(t, ok)

	_, ok = m.Resolve(b)
	assert.True(t, ok)
}
