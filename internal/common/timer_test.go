package common

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	d := timer.Stop()

	assert.Positive(t, d)
	assert.Equal(t, d, timer.Duration())
	assert.Empty(t, timer.Name())
}

func TestNamedTimer(t *testing.T) {
	timer := NewNamedTimer("crop")
	timer.Stop()

	assert.Equal(t, "crop", timer.Name())
	assert.True(t, strings.HasPrefix(timer.String(), "crop: "))
}
