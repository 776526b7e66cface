package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSessionIDStable(t *testing.T) {
	a := DefaultSessionID("alice")
	b := DefaultSessionID("alice")
	assert.Equal(t, a, b)
}

func TestDefaultSessionIDDistinctPerUser(t *testing.T) {
	assert.NotEqual(t, DefaultSessionID("alice"), DefaultSessionID("bob"))
}

func TestDefaultSessionIDShape(t *testing.T) {
	id := DefaultSessionID("alice")
	assert.Len(t, id, 36)
	assert.Contains(t, id, "-")
}
