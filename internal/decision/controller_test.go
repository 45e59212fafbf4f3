package decision

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukaan-ai/orderdesk/internal/models"
	apperrors "github.com/dukaan-ai/orderdesk/pkg/errors"
	"github.com/dukaan-ai/orderdesk/pkg/gesture"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

type transitionCall struct {
	orderID string
	target  models.OrderStatus
	trigger string
}

// fakeStore records transition requests and can be primed to reject them.
type fakeStore struct {
	mu     sync.Mutex
	calls  []transitionCall
	err    error
	notify chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{notify: make(chan struct{}, 16)}
}

func (s *fakeStore) RequestStatusTransition(ctx context.Context, orderID string, target models.OrderStatus, trigger string) error {
	s.mu.Lock()
	s.calls = append(s.calls, transitionCall{orderID: orderID, target: target, trigger: trigger})
	err := s.err
	s.mu.Unlock()

	s.notify <- struct{}{}
	return err
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStore) call(i int) transitionCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

// manualTicks hands each started countdown its own channel, in the order the
// windows were opened, so tests drive every window by hand.
type manualTicks struct {
	mu    sync.Mutex
	chans []chan time.Time
}

func (m *manualTicks) source(time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan time.Time)
	m.chans = append(m.chans, ch)
	return ch, func() {}
}

// tick delivers one tick to the i-th opened window and blocks until its
// countdown loop has picked it up.
func (m *manualTicks) tick(i int) {
	m.mu.Lock()
	ch := m.chans[i]
	m.mu.Unlock()
	ch <- time.Time{}
}

// offer tries to deliver a tick to a window whose countdown may already be
// torn down; a dead loop simply never accepts it.
func (m *manualTicks) offer(i int) {
	m.mu.Lock()
	ch := m.chans[i]
	m.mu.Unlock()

	go func() {
		select {
		case ch <- time.Time{}:
		case <-time.After(200 * time.Millisecond):
		}
	}()
}

func newTestController(store *fakeStore, ticks *manualTicks) *Controller {
	cfg := Config{
		ListTicks:    600,
		DetailTicks:  150,
		TickInterval: 100 * time.Millisecond,
		TrackWidth:   140,
		HandleWidth:  40,
		TickSource:   ticks.source,
	}
	return NewController(cfg, store, logger.Nop())
}

func newOrder() *models.Order {
	return models.NewOrder("Asha", 240.0, "upi", nil)
}

func waitCall(t *testing.T, store *fakeStore) {
	t.Helper()
	select {
	case <-store.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a transition request")
	}
}

func mouse(x float64) gesture.PointerEvent {
	return gesture.PointerEvent{MouseX: &x}
}

// Scenario: an untouched list window runs its full 600 ticks and the order is
// rejected automatically, with exactly one transition request.
func TestUntouchedWindowTimesOutToReject(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	for i := 0; i < 600; i++ {
		ticks.tick(0)
	}
	waitCall(t, store)

	if got := store.callCount(); got != 1 {
		t.Fatalf("transition requests = %d, want 1", got)
	}

	call := store.call(0)
	if call.orderID != order.ID || call.target != models.OrderStatusRejected || call.trigger != TriggerTimeout {
		t.Fatalf("unexpected transition request %+v", call)
	}

	if got := c.OpenWindows(); got != 0 {
		t.Fatalf("open windows after expiry = %d, want 0", got)
	}
}

// Scenario: the handle is dragged to 75px of a 100px travel (past the 70%
// threshold) and released at tick 30; the order is accepted, the countdown is
// cancelled, and no reject fires even if ticks keep being offered.
func TestGestureCommitAcceptsAndSilencesTimer(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	for i := 0; i < 30; i++ {
		ticks.tick(0)
	}

	if err := c.GestureBegin(order.ID, SurfaceList, mouse(0)); err != nil {
		t.Fatalf("GestureBegin: %v", err)
	}
	if _, err := c.GestureMove(order.ID, SurfaceList, mouse(75)); err != nil {
		t.Fatalf("GestureMove: %v", err)
	}

	verdict, _, err := c.GestureEnd(context.Background(), order.ID, SurfaceList)
	if err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
	if verdict != gesture.VerdictCommit {
		t.Fatalf("verdict = %v, want commit", verdict)
	}
	waitCall(t, store)

	call := store.call(0)
	if call.target != models.OrderStatusPreparing || call.trigger != TriggerGesture {
		t.Fatalf("unexpected transition request %+v", call)
	}

	// Keep simulating ticks against the dead countdown.
	for i := 0; i < 5; i++ {
		ticks.offer(0)
	}
	time.Sleep(300 * time.Millisecond)

	if got := store.callCount(); got != 1 {
		t.Fatalf("transition requests after commit = %d, want 1", got)
	}
}

// Scenario: a drag released at 50% of the travel settles back to zero, the
// order stays new and the countdown keeps running from where it was.
func TestGestureCancelLeavesTimerRunning(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceDetail); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	if err := c.GestureBegin(order.ID, SurfaceDetail, mouse(0)); err != nil {
		t.Fatalf("GestureBegin: %v", err)
	}
	if _, err := c.GestureMove(order.ID, SurfaceDetail, mouse(50)); err != nil {
		t.Fatalf("GestureMove: %v", err)
	}

	verdict, settle, err := c.GestureEnd(context.Background(), order.ID, SurfaceDetail)
	if err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
	if verdict != gesture.VerdictCancel {
		t.Fatalf("verdict = %v, want cancel", verdict)
	}
	if settle != 0 {
		t.Fatalf("settle offset = %v, want 0", settle)
	}

	if got := store.callCount(); got != 0 {
		t.Fatalf("transition requests after cancel = %d, want 0", got)
	}

	// The countdown is still live: one more tick must still be consumed.
	ticks.tick(0)

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := c.Snapshot(order.ID, SurfaceDetail)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.RemainingTicks < snap.DurationTicks {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("countdown never advanced past %d ticks", snap.DurationTicks)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Touch input drives the same tracker as mouse input.
func TestTouchCommit(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	begin := gesture.PointerEvent{Touches: []gesture.TouchPoint{{X: 10}}}
	move := gesture.PointerEvent{Touches: []gesture.TouchPoint{{X: 95}}}

	if err := c.GestureBegin(order.ID, SurfaceList, begin); err != nil {
		t.Fatalf("GestureBegin: %v", err)
	}
	if offset, err := c.GestureMove(order.ID, SurfaceList, move); err != nil || offset != 85 {
		t.Fatalf("GestureMove = (%v, %v), want (85, nil)", offset, err)
	}

	verdict, _, err := c.GestureEnd(context.Background(), order.ID, SurfaceList)
	if err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
	if verdict != gesture.VerdictCommit {
		t.Fatalf("verdict = %v, want commit", verdict)
	}
}

// Dismissing the surface tears the window down with no side effects.
func TestDismissedWindowNeverRejects(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceDetail); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	ticks.tick(0)
	c.OnDecisionSurfaceClosed(order.ID, SurfaceDetail)

	if got := c.OpenWindows(); got != 0 {
		t.Fatalf("open windows after dismiss = %d, want 0", got)
	}

	for i := 0; i < 3; i++ {
		ticks.offer(0)
	}
	time.Sleep(300 * time.Millisecond)

	if got := store.callCount(); got != 0 {
		t.Fatalf("transition requests after dismiss = %d, want 0", got)
	}
}

// The list and detail surfaces can hold independent windows for the same
// order; the first terminal action closes both.
func TestBothSurfacesFirstTerminalActionWins(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("open list window: %v", err)
	}
	if err := c.OnOrderEnteredNew(order, SurfaceDetail); err != nil {
		t.Fatalf("open detail window: %v", err)
	}

	if got := c.OpenWindows(); got != 2 {
		t.Fatalf("open windows = %d, want 2", got)
	}

	// Commit on the detail surface; the list window must be torn down too.
	if err := c.GestureBegin(order.ID, SurfaceDetail, mouse(0)); err != nil {
		t.Fatalf("GestureBegin: %v", err)
	}
	if _, err := c.GestureMove(order.ID, SurfaceDetail, mouse(100)); err != nil {
		t.Fatalf("GestureMove: %v", err)
	}
	if _, _, err := c.GestureEnd(context.Background(), order.ID, SurfaceDetail); err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
	waitCall(t, store)

	if got := c.OpenWindows(); got != 0 {
		t.Fatalf("open windows after commit = %d, want 0", got)
	}

	// The list countdown is dead; running it out must not reject.
	for i := 0; i < 5; i++ {
		ticks.offer(0)
	}
	time.Sleep(300 * time.Millisecond)

	if got := store.callCount(); got != 1 {
		t.Fatalf("transition requests = %d, want 1", got)
	}
}

// A commit racing an already-acted-on order degrades to a no-op when the
// store rejects the edge.
func TestLosingCommitIsSilenced(t *testing.T) {
	store := newFakeStore()
	store.err = apperrors.NewInvalidTransitionError("order already rejected")
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	if err := c.GestureBegin(order.ID, SurfaceList, mouse(0)); err != nil {
		t.Fatalf("GestureBegin: %v", err)
	}
	if _, err := c.GestureMove(order.ID, SurfaceList, mouse(100)); err != nil {
		t.Fatalf("GestureMove: %v", err)
	}

	// The store rejects the transition, but the caller sees a clean commit
	// verdict rather than an error.
	if _, _, err := c.GestureEnd(context.Background(), order.ID, SurfaceList); err != nil {
		t.Fatalf("GestureEnd surfaced a losing race as an error: %v", err)
	}
}

func TestOpenWindowRequiresNewStatus(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	order.Status = models.OrderStatusPreparing

	if err := c.OnOrderEnteredNew(order, SurfaceList); err != ErrOrderNotNew {
		t.Fatalf("OnOrderEnteredNew on non-new order = %v, want ErrOrderNotNew", err)
	}
}

func TestGestureOnMissingWindow(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	if err := c.GestureBegin("ord-missing", SurfaceList, mouse(0)); err != ErrNoWindow {
		t.Fatalf("GestureBegin without window = %v, want ErrNoWindow", err)
	}
	if _, _, err := c.GestureEnd(context.Background(), "ord-missing", SurfaceList); err != ErrNoWindow {
		t.Fatalf("GestureEnd without window = %v, want ErrNoWindow", err)
	}
}

func TestManualAdvanceForwardsToStore(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	if err := c.ManualAdvance(context.Background(), "ord-1", models.OrderStatusReadyForPickup); err != nil {
		t.Fatalf("ManualAdvance: %v", err)
	}

	call := store.call(0)
	if call.orderID != "ord-1" || call.target != models.OrderStatusReadyForPickup || call.trigger != TriggerManual {
		t.Fatalf("unexpected transition request %+v", call)
	}
}

func TestManualAdvancePropagatesRejection(t *testing.T) {
	store := newFakeStore()
	store.err = apperrors.NewInvalidTransitionError("backwards")
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	if err := c.ManualAdvance(context.Background(), "ord-1", models.OrderStatusPreparing); err == nil {
		t.Fatal("ManualAdvance swallowed the store's rejection")
	}
}

func TestManualRejectClosesWindows(t *testing.T) {
	store := newFakeStore()
	ticks := &manualTicks{}
	c := newTestController(store, ticks)

	order := newOrder()
	if err := c.OnOrderEnteredNew(order, SurfaceList); err != nil {
		t.Fatalf("OnOrderEnteredNew: %v", err)
	}

	if err := c.ManualAdvance(context.Background(), order.ID, models.OrderStatusRejected); err != nil {
		t.Fatalf("ManualAdvance: %v", err)
	}

	if got := c.OpenWindows(); got != 0 {
		t.Fatalf("open windows after manual reject = %d, want 0", got)
	}
}
