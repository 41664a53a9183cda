package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailQueueDelivers(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
		wg   sync.WaitGroup
	)

	q := NewMailQueue(func(inv Invitation) error {
		mu.Lock()
		sent = append(sent, inv.To)
		mu.Unlock()
		wg.Done()
		return nil
	}, 2, 4)
	q.StartWorkerPool()
	defer q.Close()

	wg.Add(3)
	for _, to := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, q.SendInvitation(context.Background(), Invitation{To: to, Token: "t"}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a@x.com", "b@x.com", "c@x.com"}, sent)
}

func TestMailQueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewMailQueue(func(Invitation) error {
		<-block
		return nil
	}, 1, 1)

	// No workers yet, so the single slot fills up
	require.NoError(t, q.SendInvitation(context.Background(), Invitation{To: "a@x.com"}))
	assert.ErrorIs(t, q.SendInvitation(context.Background(), Invitation{To: "b@x.com"}), ErrMailQueueFull)
	assert.Equal(t, int32(1), q.Pending())

	q.StartWorkerPool()
	close(block)

	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 10*time.Millisecond)
	q.Close()
}

func TestMailQueueClosed(t *testing.T) {
	q := NewMailQueue(func(Invitation) error { return nil }, 1, 4)
	q.StartWorkerPool()

	q.Close()
	q.Close()

	assert.NotPanics(t, func() {
		err := q.SendInvitation(context.Background(), Invitation{To: "a@x.com"})
		assert.ErrorIs(t, err, ErrMailQueueClosed)
	})
	assert.Equal(t, int32(0), q.Pending())
}

func TestMailQueuePendingNeverNegative(t *testing.T) {
	var lowest atomic.Int32

	var q *MailQueue
	q = NewMailQueue(func(Invitation) error {
		if p := q.Pending(); p < lowest.Load() {
			lowest.Store(p)
		}
		return nil
	}, 4, 64)
	q.StartWorkerPool()
	defer q.Close()

	for range 50 {
		require.NoError(t, q.SendInvitation(context.Background(), Invitation{To: "a@x.com"}))
		assert.GreaterOrEqual(t, q.Pending(), int32(0))
	}

	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, lowest.Load(), int32(0))
}

func TestInvitationBody(t *testing.T) {
	body := invitationBody("https://drive.test/teams/join/%s", Invitation{
		To: "b@x.com", TeamName: "Acme", Token: "abc",
	})

	assert.Contains(t, body, "https://drive.test/teams/join/abc")
	assert.Contains(t, body, "b@x.com")
	assert.Contains(t, body, "Acme")
}
