package httpx

import (
	"net/http"

	apperrors "github.com/casgate/casgate/internal/errors"
)

// dispatchStage terminates the pipeline: it serves the gateway's own small
// endpoints and hands everything else to the proxy.
type dispatchStage struct {
	proxy *Dispatcher
}

func (s *dispatchStage) Name() string { return "dispatch" }

func (s *dispatchStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	switch r.URL.Path {
	case "/healthz":
		s.handleHealthz(w, r)
	case "/user":
		s.handleUser(w, r)
	default:
		s.proxy.ServeHTTP(w, r)
	}
	return nil, false
}

func (s *dispatchStage) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteError(w, ErrorParams{
			Code:    http.StatusMethodNotAllowed,
			ErrCode: "method_not_allowed",
			Message: "healthz requires GET",
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUser returns the authenticated principal. Frontends call it on load
// to learn who is signed in and which roles they carry.
func (s *dispatchStage) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, ErrorParams{
			Code:    http.StatusMethodNotAllowed,
			ErrCode: "method_not_allowed",
			Message: "user requires GET",
		})
		return
	}
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		writeAppError(w, apperrors.Unauthenticated("authentication required"))
		return
	}
	WriteJSON(w, http.StatusOK, session.Principal)
}
