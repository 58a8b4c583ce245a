package httpx

import (
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/casgate/casgate/internal/service"
)

// maxSLOBody bounds how much of a POST body is buffered while looking for a
// back-channel logout request. SAML LogoutRequests are small; anything bigger
// is ordinary application traffic.
const maxSLOBody = 256 << 10

// samlLogoutRequest is the minimal slice of a SAML LogoutRequest we care
// about: the SessionIndex elements name the service ticket that opened the
// session being terminated.
type samlLogoutRequest struct {
	XMLName        xml.Name `xml:"LogoutRequest"`
	SessionIndexes []string `xml:"SessionIndex"`
}

// singleLogoutStage listens for the SSO server's back-channel logout
// notifications. They arrive as form posts on arbitrary paths, so the stage
// sniffs form bodies without consuming them for downstream handlers.
type singleLogoutStage struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func (s *singleLogoutStage) Name() string { return "single-logout" }

func (s *singleLogoutStage) Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if r.Method != http.MethodPost {
		return r, true
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return r, true
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSLOBody))
	// Whatever was read is stitched back so a proxied POST stays intact.
	r.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(body), r.Body),
		closer: r.Body,
	}
	if err != nil {
		return r, true
	}

	vals, parseErr := url.ParseQuery(string(body))
	if parseErr != nil {
		return r, true
	}
	logoutXML := vals.Get(logoutRequestField)
	if logoutXML == "" {
		return r, true
	}

	// From here on the request belongs to the back channel. The response is
	// 200 no matter what: logout is idempotent and the SSO server retries on
	// anything else.
	var req samlLogoutRequest
	if unmarshalErr := xml.Unmarshal([]byte(logoutXML), &req); unmarshalErr != nil {
		s.logger.Warn("malformed single logout request",
			slog.String("error", unmarshalErr.Error()))
		w.WriteHeader(http.StatusOK)
		return nil, false
	}

	for _, ticket := range req.SessionIndexes {
		if sloErr := s.auth.SingleLogout(r.Context(), strings.TrimSpace(ticket)); sloErr != nil {
			s.logger.Warn("single logout failed",
				slog.String("error", sloErr.Error()))
		}
	}

	w.WriteHeader(http.StatusOK)
	return nil, false
}

// replayBody glues a buffered prefix back onto the original body while
// keeping the original's Close.
type replayBody struct {
	io.Reader
	closer io.Closer
}

func (b *replayBody) Close() error { return b.closer.Close() }
