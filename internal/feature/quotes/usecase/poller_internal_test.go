package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPoller_DropsResultOlderThanApplied は後から発行された結果が既に反映済みの場合、
// 先に発行された取得の結果を破棄することを検証します。
func TestPoller_DropsResultOlderThanApplied(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	p := NewPoller("test", func(context.Context) (int, error) {
		<-release
		return 1, nil
	}, PollerConfig{Manual: true, Timeout: time.Second}, nil)

	done := make(chan bool)
	go func() { done <- p.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return p.State().Loading }, time.Second, time.Millisecond)

	// a later-issued attempt has already landed
	p.mu.Lock()
	p.applied = p.issued + 1
	p.mu.Unlock()

	close(release)
	assert.True(t, <-done)

	s := p.State()
	assert.Nil(t, s.Data)
	assert.False(t, s.Loading)
	assert.True(t, s.UpdatedAt.IsZero())
}
