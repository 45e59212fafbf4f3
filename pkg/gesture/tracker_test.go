package gesture

import "testing"

// Standard slide-to-accept geometry: 140px track, 40px handle, 100px travel.
func newTestTracker() *Tracker {
	return NewTracker(140, 40)
}

func TestMoveClampsOffset(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(10)

	cases := []struct {
		pointerX float64
		want     float64
	}{
		{10, 0},    // no movement
		{5, 0},     // leftwards drags clamp to zero
		{-50, 0},   // far leftwards still zero
		{60, 50},   // mid-track
		{110, 100}, // exactly at max travel
		{400, 100}, // overshoot clamps to max travel
	}

	for _, c := range cases {
		if got := tr.Move(c.pointerX); got != c.want {
			t.Errorf("Move(%v) = %v, want %v", c.pointerX, got, c.want)
		}
	}
}

func TestEndCommitsPastThreshold(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(0)
	tr.Move(75)

	verdict, settle := tr.End()
	if verdict != VerdictCommit {
		t.Fatalf("verdict = %v, want commit", verdict)
	}
	if settle != 100 {
		t.Fatalf("settle offset = %v, want 100", settle)
	}
	if tr.Active() {
		t.Fatal("tracker still active after End")
	}
}

func TestEndCancelsShortOfThreshold(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(0)
	tr.Move(50)

	verdict, settle := tr.End()
	if verdict != VerdictCancel {
		t.Fatalf("verdict = %v, want cancel", verdict)
	}
	if settle != 0 {
		t.Fatalf("settle offset = %v, want 0", settle)
	}
}

func TestEndAtExactThresholdCancels(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(0)
	tr.Move(70)

	// Commit requires strictly more than 70% of the travel.
	if verdict, _ := tr.End(); verdict != VerdictCancel {
		t.Fatalf("verdict at exact threshold = %v, want cancel", verdict)
	}
}

func TestCustomCommitThreshold(t *testing.T) {
	// Half-travel threshold on the standard geometry: 50px is the line.
	tr := NewTrackerWithThreshold(140, 40, 0.5)

	tr.Begin(0)
	tr.Move(55)
	if verdict, _ := tr.End(); verdict != VerdictCommit {
		t.Fatal("55px past a 50px threshold should commit")
	}

	tr.Begin(0)
	tr.Move(45)
	if verdict, _ := tr.End(); verdict != VerdictCancel {
		t.Fatal("45px short of a 50px threshold should cancel")
	}
}

func TestOutOfRangeThresholdFallsBackToDefault(t *testing.T) {
	for _, bad := range []float64{0, -0.3, 1.5} {
		tr := NewTrackerWithThreshold(140, 40, bad)
		if tr.threshold != DefaultCommitThreshold {
			t.Errorf("threshold(%v) = %v, want DefaultCommitThreshold", bad, tr.threshold)
		}
	}
}

func TestEndUsesFinalOffsetNotPeak(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(0)
	tr.Move(95) // past the threshold on the way out
	tr.Move(30) // dragged back before release

	if verdict, _ := tr.End(); verdict != VerdictCancel {
		t.Fatal("verdict should be decided by the final offset, not peak travel")
	}
}

func TestEndWithoutBeginIsNoop(t *testing.T) {
	tr := newTestTracker()

	verdict, settle := tr.End()
	if verdict != VerdictCancel || settle != 0 {
		t.Fatalf("End without Begin = (%v, %v), want (cancel, 0)", verdict, settle)
	}
}

func TestMoveWithoutBeginIsNoop(t *testing.T) {
	tr := newTestTracker()

	if got := tr.Move(80); got != 0 {
		t.Fatalf("Move without Begin = %v, want 0", got)
	}
	if tr.Offset() != 0 {
		t.Fatalf("Offset mutated by inactive Move")
	}
}

func TestBeginRestartsInteraction(t *testing.T) {
	tr := newTestTracker()
	tr.Begin(0)
	tr.Move(80)

	tr.Begin(200)
	if tr.Offset() != 0 {
		t.Fatal("Begin should reset the offset")
	}
	if got := tr.Move(250); got != 50 {
		t.Fatalf("Move after re-Begin = %v, want 50", got)
	}
}

func TestHandleWiderThanTrack(t *testing.T) {
	tr := NewTracker(30, 40)
	tr.Begin(0)

	if got := tr.Move(100); got != 0 {
		t.Fatalf("Move on zero-travel track = %v, want 0", got)
	}
	if verdict, _ := tr.End(); verdict != VerdictCancel {
		t.Fatal("zero-travel track must never commit")
	}
}

func TestHorizontalXMouse(t *testing.T) {
	x := 42.5
	got, ok := HorizontalX(PointerEvent{MouseX: &x})
	if !ok || got != 42.5 {
		t.Fatalf("HorizontalX(mouse) = (%v, %v), want (42.5, true)", got, ok)
	}
}

func TestHorizontalXTouch(t *testing.T) {
	ev := PointerEvent{Touches: []TouchPoint{{X: 13, Y: 99}, {X: 70}}}
	got, ok := HorizontalX(ev)
	if !ok || got != 13 {
		t.Fatalf("HorizontalX(touch) = (%v, %v), want (13, true)", got, ok)
	}
}

func TestHorizontalXEmpty(t *testing.T) {
	if _, ok := HorizontalX(PointerEvent{}); ok {
		t.Fatal("HorizontalX of an empty event reported a coordinate")
	}
}
