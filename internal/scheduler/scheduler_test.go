package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("not a schedule", "UTC", func() {}, nil)
	assert.Error(t, err)
}

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New("0 */6 * * *", "Mars/Olympus", func() {}, nil)
	assert.Error(t, err)
}

func TestNextAfterStart(t *testing.T) {
	s, err := New("0 */6 * * *", "America/New_York", func() {}, nil)
	require.NoError(t, err)

	assert.True(t, s.Next().IsZero(), "no next run before Start")

	s.Start()
	defer func() { <-s.Stop().Done() }()

	next := s.Next()
	require.False(t, next.IsZero())
	assert.LessOrEqual(t, time.Until(next), 6*time.Hour)
}

func TestJobFires(t *testing.T) {
	fired := make(chan struct{}, 1)
	s, err := New("@every 10ms", "UTC", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, nil)
	require.NoError(t, err)

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job never fired")
	}
}
