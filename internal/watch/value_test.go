package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		return 0
	}
}

func TestValue_GetBeforeSet(t *testing.T) {
	v := NewValue[int]()
	_, ok := v.Get()
	assert.False(t, ok)
}

func TestValue_SubscriberReplaysLatest(t *testing.T) {
	v := NewValue[int]()
	v.Set(1)
	v.Set(2)

	// A late subscriber immediately sees the most recent value, not the
	// history and not nothing.
	ch, cancel := v.Subscribe()
	defer cancel()
	assert.Equal(t, 2, recv(t, ch))
}

func TestValue_UpdatesArriveInOrder(t *testing.T) {
	v := NewValue[int]()
	ch, cancel := v.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		v.Set(i)
	}
	for i := 1; i <= 5; i++ {
		assert.Equal(t, i, recv(t, ch))
	}
}

func TestValue_MultipleSubscribers(t *testing.T) {
	v := NewValue[int]()
	v.Set(7)

	ch1, cancel1 := v.Subscribe()
	defer cancel1()
	ch2, cancel2 := v.Subscribe()
	defer cancel2()

	require.Equal(t, 7, recv(t, ch1))
	require.Equal(t, 7, recv(t, ch2))

	v.Set(8)
	assert.Equal(t, 8, recv(t, ch1))
	assert.Equal(t, 8, recv(t, ch2))
}

func TestValue_CancelStopsDelivery(t *testing.T) {
	v := NewValue[int]()
	ch, cancel := v.Subscribe()
	cancel()

	v.Set(1)
	select {
	case <-ch:
		t.Fatal("received a value after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestValue_SlowSubscriberKeepsLatest(t *testing.T) {
	v := NewValue[int]()
	ch, cancel := v.Subscribe()
	defer cancel()

	// Overflow the buffer; the writer must not block and the newest value
	// must survive.
	for i := 0; i < subscriberBuffer*3; i++ {
		v.Set(i)
	}

	var last int
	for {
		select {
		case last = <-ch:
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriberBuffer*3-1, last)
}
