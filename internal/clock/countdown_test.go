package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountdownTicksDownAndExpires(t *testing.T) {
	c := NewWithInterval(2 * time.Millisecond)

	var mu sync.Mutex
	var ticks []int
	expired := make(chan struct{})

	c.Start(4, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() {
		close(expired)
	})

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never expired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{3, 2, 1}, ticks, "ticks must be strictly decreasing to 1")
}

func TestCancelBeforeExpiryStopsCallbacks(t *testing.T) {
	c := NewWithInterval(5 * time.Millisecond)

	expired := make(chan struct{}, 1)
	h := c.Start(1000, func(int) {}, func() {
		expired <- struct{}{}
	})
	h.Cancel()

	select {
	case <-expired:
		t.Fatal("onExpire fired after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	c := NewWithInterval(time.Millisecond)
	h := c.Start(10, func(int) {}, func() {})
	h.Cancel()
	require.NotPanics(t, func() { h.Cancel() })
}
