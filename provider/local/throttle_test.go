package local_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-auth-flows/provider/local"
	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	clock := newTestClock()
	throttle := local.NewThrottle(1, 2, clock.Now)

	assert.True(t, throttle.Allow("a@example.com"))
	assert.True(t, throttle.Allow("a@example.com"))
	assert.False(t, throttle.Allow("a@example.com"))

	assert.True(t, throttle.Allow("b@example.com"), "keys are independent")

	clock.Advance(time.Second)
	assert.True(t, throttle.Allow("a@example.com"))
	assert.False(t, throttle.Allow("a@example.com"))

	throttle.Reset("a@example.com")
	assert.True(t, throttle.Allow("a@example.com"))
	assert.Equal(t, 2, throttle.Len())
}

func TestThrottlePrune(t *testing.T) {
	clock := newTestClock()
	throttle := local.NewThrottle(1, 1, clock.Now)

	throttle.Allow("old")
	clock.Advance(10 * time.Minute)
	throttle.Allow("fresh")

	assert.Equal(t, 1, throttle.Prune(5*time.Minute))
	assert.Equal(t, 1, throttle.Len())
}

func TestNilThrottleAllowsEverything(t *testing.T) {
	var throttle *local.Throttle

	for i := 0; i < 10; i++ {
		assert.True(t, throttle.Allow("key"))
	}
	throttle.Reset("key")
	assert.Zero(t, throttle.Prune(time.Second))
	assert.Zero(t, throttle.Len())
}
