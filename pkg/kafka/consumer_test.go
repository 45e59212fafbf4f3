package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// failingGroup always refuses to join, simulating a broker that went away
// after startup.
type failingGroup struct {
	mu    sync.Mutex
	calls int
}

func (g *failingGroup) Consume(context.Context, []string, sarama.ConsumerGroupHandler) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return sarama.ErrOutOfBrokers
}

func (g *failingGroup) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *failingGroup) Errors() <-chan error      { return nil }
func (g *failingGroup) Close() error              { return nil }
func (g *failingGroup) Pause(map[string][]int32)  {}
func (g *failingGroup) Resume(map[string][]int32) {}
func (g *failingGroup) PauseAll()                 {}
func (g *failingGroup) ResumeAll()                {}

func TestRejoinLoopBacksOffBetweenAttempts(t *testing.T) {
	group := &failingGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		consumerGroup: group,
		topics:        []string{"orderdesk.incoming-orders"},
		handlers:      make(map[string]MessageHandler),
		logger:        logger.Nop(),
		retryBackoff:  20 * time.Millisecond,
		ctx:           ctx,
		cancel:        cancel,
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(110 * time.Millisecond)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	calls := group.callCount()

	// The loop must keep retrying, but paced by the backoff: roughly one
	// attempt per 20ms window, nowhere near the thousands a hot loop burns.
	if calls < 2 {
		t.Fatalf("join attempts = %d, want the loop to keep retrying", calls)
	}
	if calls > 10 {
		t.Fatalf("join attempts = %d in ~110ms, backoff is not being applied", calls)
	}
}
