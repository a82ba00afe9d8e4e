package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_DisabledGrantsEveryLock(t *testing.T) {
	l := NewLocker("", "", 0)
	assert.False(t, l.Enabled())

	release, err := l.Acquire(context.Background(), "pipeline", time.Minute)
	require.NoError(t, err)
	release()

	release2, err := l.Acquire(context.Background(), "pipeline", time.Minute)
	require.NoError(t, err)
	release2()

	assert.NoError(t, l.Close())
}

func TestLocker_NilIsDisabled(t *testing.T) {
	var l *Locker
	assert.False(t, l.Enabled())
}
