package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHashClient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, hashClient("192.168.1.100"), hashClient("192.168.1.100"))
	assert.Len(t, hashClient("2001:db8::1"), 16)
	assert.Len(t, hashClient(""), 16)
	assert.NotEqual(t, hashClient("10.0.0.1"), hashClient("10.0.0.2"))
	assert.NotContains(t, hashClient("10.0.0.1"), "10.0.0.1")
}

func TestEvaluateAttempt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		want  Attempt
	}{
		{"first", 1, Attempt{Allowed: true, Remaining: 4}},
		{"last allowed", 5, Attempt{Allowed: true, Remaining: 0}},
		{"over the limit", 6, Attempt{RetryAfter: 40 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, evaluateAttempt(tt.count, 5, 40*time.Second))
		})
	}
}

func TestLoginThrottle_NoLimit(t *testing.T) {
	t.Parallel()

	l := (&Cache{}).LoginThrottle(0, 0)
	a, err := l.Hit(context.Background(), "10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, a.Allowed)
	assert.Equal(t, time.Minute, l.window)
}

func TestViewKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "view:01HX:books", ViewKey("01HX", "books"))
	assert.Equal(t, "viewseq:01HX:loans", seqKey("01HX", "loans"))
	assert.NotEqual(t, ViewKey("a", "books"), ViewKey("b", "books"))
}

func TestSessionKeys_CoverEveryView(t *testing.T) {
	t.Parallel()

	keys := sessionKeys("01HX")
	assert.Equal(t, "session:01HX", keys[0])
	assert.Len(t, keys, 1+2*len(Views))
	for _, view := range Views {
		assert.Contains(t, keys, ViewKey("01HX", view))
		assert.Contains(t, keys, seqKey("01HX", view))
	}
	assert.Contains(t, Views, ViewBooks)
	assert.Contains(t, Views, ViewLoans)
}
