package decision

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/pkg/countdown"
	apperrors "github.com/dukaan-ai/orderdesk/pkg/errors"
	"github.com/dukaan-ai/orderdesk/pkg/gesture"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// Surface identifies which decision UI a window belongs to. The list surface
// gives staff the long countdown, the detail surface the short one.
type Surface string

const (
	SurfaceList   Surface = "list"
	SurfaceDetail Surface = "detail"
)

// Transition triggers reported to the order store alongside a status change.
const (
	TriggerTimeout = "timeout"
	TriggerGesture = "gesture"
	TriggerManual  = "manual"
)

var (
	// ErrNoWindow is returned when no decision window is open for the
	// requested order and surface.
	ErrNoWindow = errors.New("no open decision window")
	// ErrOrderNotNew is returned when a window is requested for an order
	// that has already left the new status.
	ErrOrderNotNew = errors.New("order is not awaiting a decision")
)

// TransitionRequester is the single channel through which the controller asks
// the order store for a status change. The store validates the edge; an
// invalid-transition rejection is how a losing timeout/commit race is
// silenced.
type TransitionRequester interface {
	RequestStatusTransition(ctx context.Context, orderID string, target models.OrderStatus, trigger string) error
}

// Config carries the per-surface countdown durations and the slide control
// geometry.
type Config struct {
	ListTicks    int
	DetailTicks  int
	TickInterval time.Duration
	TrackWidth   float64
	HandleWidth  float64

	// CommitThreshold overrides the gesture commit fraction; zero means
	// gesture.DefaultCommitThreshold.
	CommitThreshold float64

	// TickSource overrides the countdown tick source, used by tests.
	TickSource countdown.TickSource
}

// Snapshot is the view-facing state of one decision window.
type Snapshot struct {
	OrderID        string  `json:"order_id"`
	Surface        Surface `json:"surface"`
	DurationTicks  int     `json:"duration_ticks"`
	RemainingTicks int     `json:"remaining_ticks"`
	Progress       float64 `json:"progress"`
	Offset         float64 `json:"offset"`
	DragActive     bool    `json:"drag_active"`
}

// window pairs one countdown with one gesture tracker for a single order on a
// single surface. closed flips exactly once, under the controller mutex, when
// the first terminal action wins; everything arriving later is a no-op.
type window struct {
	orderID  string
	surface  Surface
	duration int
	timer    *countdown.Timer
	tracker  *gesture.Tracker
	closed   bool
}

// Controller owns every open decision window and is the sole authority
// translating timer expiry and gesture commits into status-transition
// requests. One order may hold a window per surface; the windows run
// independently and the first terminal action on either closes both.
type Controller struct {
	cfg    Config
	store  TransitionRequester
	logger logger.Logger

	mu      sync.Mutex
	windows map[windowKey]*window
}

type windowKey struct {
	orderID string
	surface Surface
}

// NewController creates a decision controller issuing transitions against the
// given store.
func NewController(cfg Config, store TransitionRequester, logger logger.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		windows: make(map[windowKey]*window),
	}
}

// OnOrderEnteredNew opens a decision window for an order that is awaiting a
// decision on the given surface. An existing window for the same order and
// surface is superseded. The countdown starts immediately; if it expires the
// order is rejected automatically.
func (c *Controller) OnOrderEnteredNew(order *models.Order, surface Surface) error {
	if order.Status != models.OrderStatusNew {
		return ErrOrderNotNew
	}

	duration := c.durationFor(surface)

	c.mu.Lock()

	key := windowKey{orderID: order.ID, surface: surface}
	if old, ok := c.windows[key]; ok {
		old.closed = true
		old.timer.Cancel()
	}

	w := &window{
		orderID:  order.ID,
		surface:  surface,
		duration: duration,
		timer:    c.newTimer(),
		tracker:  gesture.NewTrackerWithThreshold(c.cfg.TrackWidth, c.cfg.HandleWidth, c.cfg.CommitThreshold),
	}
	c.windows[key] = w

	c.mu.Unlock()

	w.timer.Start(duration, nil, func() { c.expire(key, w) })

	c.logger.Info("Decision window opened",
		"orderID", order.ID,
		"surface", surface,
		"durationTicks", duration)

	return nil
}

// OnDecisionSurfaceClosed tears down the window for an order on one surface
// without any side effects: the countdown is cancelled and no reject fires
// after the fact.
func (c *Controller) OnDecisionSurfaceClosed(orderID string, surface Surface) {
	c.mu.Lock()

	key := windowKey{orderID: orderID, surface: surface}
	w, ok := c.windows[key]
	if ok {
		w.closed = true
		w.timer.Cancel()
		delete(c.windows, key)
	}

	c.mu.Unlock()

	if ok {
		c.logger.Info("Decision window dismissed", "orderID", orderID, "surface", surface)
	}
}

// GestureBegin starts a drag on the window's slide control.
func (c *Controller) GestureBegin(orderID string, surface Surface, ev gesture.PointerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[windowKey{orderID: orderID, surface: surface}]
	if !ok || w.closed {
		return ErrNoWindow
	}

	x, ok := gesture.HorizontalX(ev)
	if !ok {
		return apperrors.NewInvalidInputError("pointer event carries no coordinate")
	}

	w.tracker.Begin(x)
	return nil
}

// GestureMove advances a drag and returns the clamped offset for rendering.
func (c *Controller) GestureMove(orderID string, surface Surface, ev gesture.PointerEvent) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[windowKey{orderID: orderID, surface: surface}]
	if !ok || w.closed {
		return 0, ErrNoWindow
	}

	x, ok := gesture.HorizontalX(ev)
	if !ok {
		return w.tracker.Offset(), nil
	}

	return w.tracker.Move(x), nil
}

// GestureEnd finishes a drag. A commit cancels the countdown and accepts the
// order; a cancel leaves the countdown running and reports offset 0 as the
// settle target for the handle.
func (c *Controller) GestureEnd(ctx context.Context, orderID string, surface Surface) (gesture.Verdict, float64, error) {
	c.mu.Lock()

	key := windowKey{orderID: orderID, surface: surface}
	w, ok := c.windows[key]
	if !ok || w.closed {
		c.mu.Unlock()
		return gesture.VerdictCancel, 0, ErrNoWindow
	}

	verdict, settle := w.tracker.End()

	if verdict != gesture.VerdictCommit {
		c.mu.Unlock()
		return verdict, settle, nil
	}

	// The commit wins the race right here: the window closes before the
	// transition is issued, so a tick landing now cannot double-fire.
	c.closeOrderLocked(orderID)
	c.mu.Unlock()

	c.logger.Info("Gesture commit, accepting order", "orderID", orderID, "surface", surface)

	if err := c.store.RequestStatusTransition(ctx, orderID, models.OrderStatusPreparing, TriggerGesture); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			// The order left new through another path first; the commit
			// degrades to a no-op.
			c.logger.Warn("Gesture commit lost the race", "orderID", orderID, "error", err)
			return verdict, settle, nil
		}
		return verdict, settle, err
	}

	return verdict, settle, nil
}

// ManualAdvance forwards a user-triggered transition request. It carries no
// timing logic, but a transition that takes the order out of new closes any
// decision windows still open for it.
func (c *Controller) ManualAdvance(ctx context.Context, orderID string, target models.OrderStatus) error {
	if err := c.store.RequestStatusTransition(ctx, orderID, target, TriggerManual); err != nil {
		return err
	}

	c.mu.Lock()
	c.closeOrderLocked(orderID)
	c.mu.Unlock()

	return nil
}

// Snapshot reports the current countdown and drag state of a window for the
// view layer.
func (c *Controller) Snapshot(orderID string, surface Surface) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[windowKey{orderID: orderID, surface: surface}]
	if !ok || w.closed {
		return Snapshot{}, ErrNoWindow
	}

	return Snapshot{
		OrderID:        w.orderID,
		Surface:        w.surface,
		DurationTicks:  w.duration,
		RemainingTicks: w.timer.Remaining(),
		Progress:       w.timer.Progress(),
		Offset:         w.tracker.Offset(),
		DragActive:     w.tracker.Active(),
	}, nil
}

// OpenWindows reports how many decision windows are currently running.
func (c *Controller) OpenWindows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

// Shutdown cancels every open window without issuing transitions.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, w := range c.windows {
		w.closed = true
		w.timer.Cancel()
		delete(c.windows, key)
	}
}

// expire handles a countdown reaching zero: the order is rejected
// automatically, exactly once, with no confirmation step.
func (c *Controller) expire(key windowKey, w *window) {
	c.mu.Lock()

	current, ok := c.windows[key]
	if !ok || current != w || w.closed {
		// The window was torn down or superseded between the tick firing
		// and this callback running.
		c.mu.Unlock()
		return
	}

	c.closeOrderLocked(key.orderID)
	c.mu.Unlock()

	c.logger.Info("Decision window expired, rejecting order",
		"orderID", key.orderID,
		"surface", key.surface)

	err := c.store.RequestStatusTransition(context.Background(), key.orderID, models.OrderStatusRejected, TriggerTimeout)

	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			c.logger.Warn("Timeout reject lost the race", "orderID", key.orderID, "error", err)
			return
		}
		c.logger.Error("Failed to auto-reject order", "error", err, "orderID", key.orderID)
	}
}

// closeOrderLocked tears down every window for an order. The order is leaving
// new; no surface should keep counting down. Callers hold c.mu.
func (c *Controller) closeOrderLocked(orderID string) {
	for key, w := range c.windows {
		if key.orderID != orderID {
			continue
		}
		w.closed = true
		w.timer.Cancel()
		delete(c.windows, key)
	}
}

func (c *Controller) durationFor(surface Surface) int {
	if surface == SurfaceDetail {
		return c.cfg.DetailTicks
	}
	return c.cfg.ListTicks
}

func (c *Controller) newTimer() *countdown.Timer {
	if c.cfg.TickSource != nil {
		return countdown.New(c.cfg.TickInterval, countdown.WithTickSource(c.cfg.TickSource))
	}
	return countdown.New(c.cfg.TickInterval)
}
