package gesture

// DefaultCommitThreshold is the fraction of the usable track the handle must
// travel past for a release to count as a commit.
const DefaultCommitThreshold = 0.7

// Verdict is the outcome of a completed drag interaction.
type Verdict int

const (
	// VerdictCancel means the handle was released short of the commit
	// threshold and should settle back to the start of the track.
	VerdictCancel Verdict = iota
	// VerdictCommit means the handle travelled past the commit threshold.
	VerdictCommit
)

func (v Verdict) String() string {
	if v == VerdictCommit {
		return "commit"
	}
	return "cancel"
}

// Tracker converts raw pointer movement into a one-dimensional, clamped drag
// offset and a commit/cancel decision at release. It is pure geometry: it
// knows nothing about orders or what a commit means.
//
// A Tracker is not safe for concurrent use; callers serialize access.
type Tracker struct {
	trackWidth  float64
	handleWidth float64
	threshold   float64

	active bool
	startX float64
	offset float64
}

// NewTracker creates a tracker for a slide control of the given geometry,
// using DefaultCommitThreshold.
func NewTracker(trackWidth, handleWidth float64) *Tracker {
	return NewTrackerWithThreshold(trackWidth, handleWidth, DefaultCommitThreshold)
}

// NewTrackerWithThreshold creates a tracker with a custom commit threshold
// fraction. Values outside (0, 1] fall back to DefaultCommitThreshold.
func NewTrackerWithThreshold(trackWidth, handleWidth, threshold float64) *Tracker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCommitThreshold
	}

	return &Tracker{
		trackWidth:  trackWidth,
		handleWidth: handleWidth,
		threshold:   threshold,
	}
}

// MaxOffset returns the usable travel distance of the handle.
func (tr *Tracker) MaxOffset() float64 {
	max := tr.trackWidth - tr.handleWidth
	if max < 0 {
		return 0
	}
	return max
}

// Begin records the start position of a drag and activates the tracker. A
// second Begin before End restarts the interaction from the new position.
func (tr *Tracker) Begin(pointerX float64) {
	tr.active = true
	tr.startX = pointerX
	tr.offset = 0
}

// Move updates the drag offset from the current pointer position, clamped to
// [0, MaxOffset], and returns it for visual feedback. Move is a no-op while
// the tracker is inactive.
func (tr *Tracker) Move(pointerX float64) float64 {
	if !tr.active {
		return tr.offset
	}

	delta := pointerX - tr.startX
	if delta < 0 {
		delta = 0
	}
	if max := tr.MaxOffset(); delta > max {
		delta = max
	}

	tr.offset = delta
	return tr.offset
}

// End evaluates the final offset against the commit threshold, deactivates
// the tracker and returns the verdict together with the offset the handle
// should settle at: 0 for a cancel, MaxOffset for a commit. The decision uses
// the final offset, not the distance travelled along the way. End without a
// matching Begin is a no-op cancel.
func (tr *Tracker) End() (Verdict, float64) {
	if !tr.active {
		return VerdictCancel, 0
	}

	committed := tr.offset > tr.threshold*tr.MaxOffset()

	tr.active = false
	tr.offset = 0
	tr.startX = 0

	if committed {
		return VerdictCommit, tr.MaxOffset()
	}
	return VerdictCancel, 0
}

// Offset returns the current clamped drag offset.
func (tr *Tracker) Offset() float64 {
	return tr.offset
}

// Active reports whether a drag is in progress.
func (tr *Tracker) Active() bool {
	return tr.active
}
