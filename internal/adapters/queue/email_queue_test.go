package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSender struct {
	mu   sync.Mutex
	fail bool
	sent []string
}

func (s *stubSender) SendVerification(to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, to)
	return nil
}

func (s *stubSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *stubSender) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func TestEmailQueueDelivers(t *testing.T) {
	sender := &stubSender{}
	q := NewEmailQueue(sender, 8, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.EnqueueVerification("ada@example.com", "token-1")
	q.EnqueueVerification("bob@example.com", "token-2")

	require.Eventually(t, func() bool {
		return sender.sentCount() == 2
	}, time.Second, 10*time.Millisecond)

	status := q.Status()
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 0, status.Failed)

	cancel()
	q.Stop()
}

func TestEmailQueueParksFailuresAndRetries(t *testing.T) {
	sender := &stubSender{fail: true}
	q := NewEmailQueue(sender, 8, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.EnqueueVerification("ada@example.com", "token-1")

	require.Eventually(t, func() bool {
		return q.Status().Failed == 1
	}, time.Second, 10*time.Millisecond)

	sender.setFail(false)
	requeued := q.RetryFailed()
	assert.Equal(t, 1, requeued)

	require.Eventually(t, func() bool {
		return sender.sentCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, q.Status().Failed)

	cancel()
	q.Stop()
}

func TestEmailQueueDrainsOnShutdown(t *testing.T) {
	sender := &stubSender{}
	q := NewEmailQueue(sender, 8, zap.NewNop().Sugar())

	for i := 0; i < 5; i++ {
		q.EnqueueVerification("ada@example.com", "token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Start(ctx)
	q.Stop()

	assert.Equal(t, 5, sender.sentCount())
}
