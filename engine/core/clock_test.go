package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockOnlyAdvancesWhenStarted(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	elapsed := c.Elapsed()
	assert.Greater(t, elapsed, 0.0)

	c.Stop()
	time.Sleep(5 * time.Millisecond)
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
}

func TestShortID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, ShortID(a), 8)
	assert.Equal(t, a.String()[:8], ShortID(a))
}
