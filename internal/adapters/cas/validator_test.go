package cas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/casgate/casgate/internal/errors"
)

const successEnvelope = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>alice</cas:user>
    <cas:attributes>
      <cas:displayName>Alice Example</cas:displayName>
      <cas:mail>alice@example.com</cas:mail>
    </cas:attributes>
  </cas:authenticationSuccess>
</cas:serviceResponse>`

const failureEnvelope = `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationFailure code="INVALID_TICKET">
    Ticket ST-abc not recognized
  </cas:authenticationFailure>
</cas:serviceResponse>`

func newTestValidator(t *testing.T, handler http.HandlerFunc) (*Validator, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := NewValidatorWithClient(srv.URL+"/serviceValidate", 2*time.Second, srv.Client())
	return v, srv
}

func TestValidatorSuccess(t *testing.T) {
	var gotService, gotTicket string
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		gotService = r.URL.Query().Get("service")
		gotTicket = r.URL.Query().Get("ticket")
		fmt.Fprint(w, successEnvelope)
	})

	assertion, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/api/orders")
	require.NoError(t, err)

	assert.Equal(t, "alice", assertion.User)
	assert.Equal(t, "Alice Example", assertion.Attributes["displayName"])
	assert.Equal(t, "alice@example.com", assertion.Attributes["mail"])
	assert.Equal(t, "https://gw.example.com/api/orders", gotService)
	assert.Equal(t, "ST-abc", gotTicket)
}

func TestValidatorRejectedTicket(t *testing.T) {
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, failureEnvelope)
	})

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	require.Error(t, err)
	assert.True(t, apperrors.IsTicketRejected(err))
	assert.Contains(t, err.Error(), "INVALID_TICKET")
}

func TestValidatorEmptyTicket(t *testing.T) {
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server must not be called for an empty ticket")
	})

	_, err := v.Validate(context.Background(), "", "https://gw.example.com/")
	assert.True(t, apperrors.IsTicketRejected(err))
}

func TestValidatorMalformedResponse(t *testing.T) {
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not cas</html>")
	})

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	assert.True(t, apperrors.IsProtocolError(err))
}

func TestValidatorEmptyEnvelope(t *testing.T) {
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"></cas:serviceResponse>`)
	})

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	assert.True(t, apperrors.IsProtocolError(err))
}

func TestValidatorRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, successEnvelope)
	})

	assertion, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "alice", assertion.User)
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidatorGivesUpAfterSecondFailure(t *testing.T) {
	var calls atomic.Int32
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidatorDoesNotRetryRejection(t *testing.T) {
	var calls atomic.Int32
	v, _ := newTestValidator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, failureEnvelope)
	})

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestValidatorUnreachableServer(t *testing.T) {
	v := NewValidator("http://127.0.0.1:1/serviceValidate", 500*time.Millisecond)

	_, err := v.Validate(context.Background(), "ST-abc", "https://gw.example.com/")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
}
