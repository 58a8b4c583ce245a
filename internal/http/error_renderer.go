package httpx

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/casgate/casgate/internal/errors"
)

// statusForCode maps the error taxonomy onto HTTP statuses.
func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeInsufficientRole, apperrors.ErrCodeCSRFRejected:
		return http.StatusForbidden
	case apperrors.ErrCodeTicketRejected:
		return http.StatusUnauthorized
	case apperrors.ErrCodeAssertionMalformed:
		return http.StatusBadRequest
	case apperrors.ErrCodeProtocolError:
		return http.StatusBadGateway
	case apperrors.ErrCodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError renders an application error as JSON. Only the AppError
// message is exposed; wrapped causes stay server-side.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: string(apperrors.ErrCodeInternal),
			Message: "internal error",
		})
		return
	}
	WriteError(w, ErrorParams{
		Code:    statusForCode(appErr.Code),
		ErrCode: string(appErr.Code),
		Message: appErr.Message,
	})
}

// wantsHTML reports whether the client is a browser navigation rather than an
// API caller. Browsers advertise text/html; API clients do not.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
