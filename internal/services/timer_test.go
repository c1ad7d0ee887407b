package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActionTimer_Fires(t *testing.T) {
	var fired int32
	timer := NewActionTimer()
	timer.Arm(10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestActionTimer_ArmReplacesPendingFire(t *testing.T) {
	var first, second int32
	timer := NewActionTimer()

	timer.Arm(50*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	timer.Arm(10*time.Millisecond, func() { atomic.AddInt32(&second, 1) })

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&second) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first), "replaced callback must not fire")
}

func TestActionTimer_CancelStopsPendingFire(t *testing.T) {
	var fired int32
	timer := NewActionTimer()

	timer.Arm(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	timer.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestActionTimer_CancelIsIdempotent(t *testing.T) {
	timer := NewActionTimer()

	// Never armed, canceled twice, canceled after fire: all fine.
	timer.Cancel()
	timer.Cancel()

	var fired int32
	timer.Arm(time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
	timer.Cancel()
	timer.Cancel()
}

func TestActionTimer_ReusableAfterCancel(t *testing.T) {
	var fired int32
	timer := NewActionTimer()

	timer.Arm(time.Hour, func() { atomic.AddInt32(&fired, 100) })
	timer.Cancel()
	timer.Arm(10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
}
