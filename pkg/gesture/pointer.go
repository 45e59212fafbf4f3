package gesture

// TouchPoint is a single touch contact reported by a client.
type TouchPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent carries the raw coordinates of one pointer interaction,
// whichever input modality produced it. Mouse events set MouseX; touch events
// carry one or more touch points.
type PointerEvent struct {
	MouseX  *float64     `json:"mouse_x,omitempty"`
	Touches []TouchPoint `json:"touches,omitempty"`
}

// HorizontalX extracts the one-dimensional drag coordinate from a pointer
// event, preferring the mouse position and falling back to the first touch
// point. The second return value is false when the event carries no usable
// coordinate.
func HorizontalX(ev PointerEvent) (float64, bool) {
	if ev.MouseX != nil {
		return *ev.MouseX, true
	}
	if len(ev.Touches) > 0 {
		return ev.Touches[0].X, true
	}
	return 0, false
}
