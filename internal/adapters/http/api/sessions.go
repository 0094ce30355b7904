package api

import (
	"net/http"

	service "github.com/okian/terimu/internal/app"
	"github.com/okian/terimu/internal/domain/sequencing"
	"github.com/okian/terimu/internal/domain/types"
)

// SessionsHandler serves the game endpoints under /sessions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.CreateSessionRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.CreateSession(r.Context(), req.StoryID, requestLang(r, req.Lang))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, types.NewSessionView(&sess))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSessionView(&sess))
}

// HandleEnd handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	const op = "api.end_session"
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDrop handles POST /sessions/{id}/drops. Drops that resolve to no
// move still answer 200 with the unchanged board.
func (h *SessionsHandler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	const op = "api.drop"
	var req types.DropRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Drop(r.Context(), r.PathValue("id"), service.DropCommand{
		GestureID: req.GestureID,
		ItemID:    sequencing.ItemID(req.ItemID),
		Target:    sequencing.ParseTarget(req.Target),
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.DropView{
		Move:      res.Move.String(),
		Duplicate: res.Duplicate,
		Session:   types.NewSessionView(&res.Session),
	})
}

// HandleCheck handles POST /sessions/{id}/check.
func (h *SessionsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	const op = "api.check"
	res, err := h.deps.Check(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.CheckView{
		Complete: res.Complete,
		Success:  res.Success,
		Verdict:  res.Verdict.String(),
		Message:  res.Message,
		Session:  types.NewSessionView(&res.Session),
	})
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	sess, err := h.deps.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSessionView(&sess))
}
