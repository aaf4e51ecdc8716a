package cell

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alglobo/coordinator/internal/txerr"
)

func TestWaitTimeoutWhileWakesOnMutation(t *testing.T) {
	c := New(0)
	done := make(chan error, 1)
	go func() {
		done <- c.WaitTimeoutWhile(time.Second, func(v int) bool { return v == 0 })
	}()

	time.Sleep(10 * time.Millisecond)
	c.Set(1)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitTimeoutWhile did not wake on mutation")
	}
}

func TestWaitTimeoutWhileReturnsTimeoutWhenPredicateStillTrue(t *testing.T) {
	c := New(0)
	err := c.WaitTimeoutWhile(20*time.Millisecond, func(v int) bool { return v == 0 })
	require.True(t, errors.Is(err, txerr.ErrTimeout))
}

func TestMutateOnlyBroadcastsOnReportedChange(t *testing.T) {
	c := New(5)
	done := make(chan error, 1)
	go func() {
		done <- c.WaitTimeoutWhile(100*time.Millisecond, func(v int) bool { return v != 9 })
	}()

	time.Sleep(10 * time.Millisecond)
	c.Mutate(func(v *int) bool {
		*v = 7
		return false // not the awaited value; waiter should keep blocking
	})

	select {
	case <-done:
		t.Fatal("waiter woke on a mutation that reported no change")
	case <-time.After(30 * time.Millisecond):
	}

	c.Mutate(func(v *int) bool {
		*v = 9
		return true
	})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake after the awaited mutation")
	}
}

func TestSetReplacesValueWholesale(t *testing.T) {
	c := New("a")
	c.Set("b")
	require.Equal(t, "b", c.Get())
}
