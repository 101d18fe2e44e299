package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_PrunesExpiredEntries(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(3, time.Minute, 5*time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		l.fail("mallory")
	}
	require.True(t, l.locked("mallory"))

	for i := 1; i < minSweep; i++ {
		l.fail(fmt.Sprintf("ghost%d", i))
	}
	require.Equal(t, minSweep, l.size())

	now = now.Add(2 * time.Minute)
	l.fail("latecomer")

	assert.Equal(t, 2, l.size(), "only the locked name and the new one should remain")
	assert.True(t, l.locked("mallory"))
	assert.False(t, l.locked("ghost1"))
}

func TestLimiter_DisabledKeepsNoState(t *testing.T) {
	l := newLimiter(0, time.Minute, time.Minute, time.Now)
	for i := 0; i < 10; i++ {
		assert.False(t, l.fail("anyone"))
	}
	assert.Zero(t, l.size())
	assert.False(t, l.locked("anyone"))
}
