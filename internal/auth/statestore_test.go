package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_PutGet(t *testing.T) {
	s := NewStateStore(time.Minute)
	defer s.Close()

	s.Put("tok-1", "identity")
	v, ok := s.Get("tok-1")
	require.True(t, ok)
	assert.Equal(t, "identity", v)
}

func TestStateStore_LazyExpiry(t *testing.T) {
	s := NewStateStore(time.Millisecond)
	defer s.Close()

	s.Put("tok-1", "identity")
	time.Sleep(5 * time.Millisecond)

	_, ok := s.Get("tok-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired entry should be purged on lookup")
}

func TestStateStore_Sweep(t *testing.T) {
	s := NewStateStore(time.Millisecond)
	s.StartSweep(5 * time.Millisecond)
	defer s.Close()

	s.Put("a", 1)
	s.Put("b", 2)

	assert.Eventually(t, func() bool { return s.Len() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestStateStore_DefaultTTL(t *testing.T) {
	s := NewStateStore(0)
	defer s.Close()

	s.Put("a", 1)
	_, ok := s.Get("a")
	assert.True(t, ok)
}
