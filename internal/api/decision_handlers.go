package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/dukaan-ai/orderdesk/internal/decision"
	"github.com/dukaan-ai/orderdesk/pkg/gesture"
)

type openDecisionRequest struct {
	Surface decision.Surface `json:"surface"`
}

// openDecisionHandler opens a decision window for a new order on the given
// surface ("list" or "detail") and starts its countdown.
func (s *Server) openDecisionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var req openDecisionRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	surface, ok := parseSurface(req.Surface)
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "surface must be list or detail")
		return
	}

	order, err := s.orderService.GetOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	if err := s.controller.OnOrderEnteredNew(order, surface); err != nil {
		if errors.Is(err, decision.ErrOrderNotNew) {
			s.respondWithError(w, http.StatusConflict, "Order is no longer awaiting a decision")
			return
		}
		s.respondWithAppError(w, err)
		return
	}

	snap, err := s.controller.Snapshot(id, surface)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    snap,
	})
}

// decisionProgressHandler reports the countdown and drag state a view needs
// to render the progress bar and handle position.
func (s *Server) decisionProgressHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	surface, ok := parseSurface(decision.Surface(r.URL.Query().Get("surface")))
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "surface must be list or detail")
		return
	}

	snap, err := s.controller.Snapshot(id, surface)

	if err != nil {
		if errors.Is(err, decision.ErrNoWindow) {
			s.respondWithError(w, http.StatusNotFound, "No open decision window")
			return
		}
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    snap,
	})
}

// closeDecisionHandler dismisses a decision surface without acting on the
// order; the countdown is cancelled and no reject fires later.
func (s *Server) closeDecisionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	surface, ok := parseSurface(decision.Surface(r.URL.Query().Get("surface")))
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "surface must be list or detail")
		return
	}

	s.controller.OnDecisionSurfaceClosed(id, surface)

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
	})
}

type gestureRequest struct {
	Surface decision.Surface     `json:"surface"`
	Phase   string               `json:"phase"` // begin | move | end
	Pointer gesture.PointerEvent `json:"pointer"`
}

type gestureResponse struct {
	Offset  float64 `json:"offset"`
	Verdict string  `json:"verdict,omitempty"`
}

// gestureHandler feeds slide-control pointer events into the order's
// decision window. Mouse and touch coordinates are accepted alike.
func (s *Server) gestureHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	var req gestureRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	surface, ok := parseSurface(req.Surface)
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "surface must be list or detail")
		return
	}

	var resp gestureResponse
	var err error

	switch req.Phase {
	case "begin":
		err = s.controller.GestureBegin(id, surface, req.Pointer)
	case "move":
		resp.Offset, err = s.controller.GestureMove(id, surface, req.Pointer)
	case "end":
		var verdict gesture.Verdict
		verdict, resp.Offset, err = s.controller.GestureEnd(r.Context(), id, surface)
		resp.Verdict = verdict.String()
	default:
		s.respondWithError(w, http.StatusBadRequest, "phase must be begin, move or end")
		return
	}

	if err != nil {
		if errors.Is(err, decision.ErrNoWindow) {
			s.respondWithError(w, http.StatusNotFound, "No open decision window")
			return
		}
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    resp,
	})
}

func parseSurface(s decision.Surface) (decision.Surface, bool) {
	switch s {
	case decision.SurfaceList, decision.SurfaceDetail:
		return s, true
	default:
		return "", false
	}
}
