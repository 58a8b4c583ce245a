// Package cas implements ticket validation against a CAS 2.0 server.
package cas

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	apperrors "github.com/casgate/casgate/internal/errors"
	"github.com/casgate/casgate/internal/ports"
)

// maxResponseBytes bounds how much of the validation response we read.
const maxResponseBytes = 1 << 20

// serviceResponse is the CAS 2.0 serviceValidate envelope.
type serviceResponse struct {
	XMLName xml.Name               `xml:"serviceResponse"`
	Success *authenticationSuccess `xml:"authenticationSuccess"`
	Failure *authenticationFailure `xml:"authenticationFailure"`
}

type authenticationSuccess struct {
	User       string        `xml:"user"`
	Attributes casAttributes `xml:"attributes"`
}

type authenticationFailure struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// casAttributes collects the arbitrary child elements of cas:attributes into
// a flat map. Repeated elements keep the last value.
type casAttributes struct {
	Values map[string]string
}

func (a *casAttributes) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	a.Values = map[string]string{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			a.Values[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// Validator checks service tickets against the serviceValidate endpoint.
type Validator struct {
	validateURL string
	client      *http.Client
	timeout     time.Duration
}

// NewValidator creates a Validator for the given serviceValidate URL.
// timeout bounds each validation attempt; the call is retried once on
// network failure.
func NewValidator(validateURL string, timeout time.Duration) *Validator {
	return &Validator{
		validateURL: validateURL,
		client:      &http.Client{},
		timeout:     timeout,
	}
}

// NewValidatorWithClient creates a Validator with a caller-supplied HTTP
// client, used by tests.
func NewValidatorWithClient(validateURL string, timeout time.Duration, client *http.Client) *Validator {
	return &Validator{validateURL: validateURL, client: client, timeout: timeout}
}

// Validate exchanges the ticket for an assertion. serviceURL must match the
// URL the ticket was issued for exactly; the server rejects any mismatch.
func (v *Validator) Validate(ctx context.Context, ticket, serviceURL string) (domainauth.Assertion, error) {
	if ticket == "" {
		return domainauth.Assertion{}, apperrors.TicketRejected("empty ticket")
	}

	assertion, err := v.attempt(ctx, ticket, serviceURL)
	if err != nil && apperrors.IsUpstreamUnavailable(err) {
		// The validate call carries no state on the server side until it
		// succeeds, so one retry is safe.
		assertion, err = v.attempt(ctx, ticket, serviceURL)
	}
	return assertion, err
}

func (v *Validator) attempt(ctx context.Context, ticket, serviceURL string) (domainauth.Assertion, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("service", serviceURL)
	q.Set("ticket", ticket)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.validateURL+"?"+q.Encode(), nil)
	if err != nil {
		return domainauth.Assertion{}, fmt.Errorf("build validate request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return domainauth.Assertion{}, apperrors.Wrap(err, apperrors.ErrCodeUpstreamUnavailable, "sso server unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domainauth.Assertion{}, apperrors.UpstreamUnavailable(fmt.Sprintf("sso server returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return domainauth.Assertion{}, apperrors.ProtocolError(fmt.Sprintf("unexpected validate status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domainauth.Assertion{}, apperrors.Wrap(err, apperrors.ErrCodeUpstreamUnavailable, "read validate response")
	}

	var envelope serviceResponse
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return domainauth.Assertion{}, apperrors.Wrap(err, apperrors.ErrCodeProtocolError, "malformed validate response")
	}

	switch {
	case envelope.Failure != nil:
		return domainauth.Assertion{}, apperrors.TicketRejectedf("%s: %s",
			envelope.Failure.Code, strings.TrimSpace(envelope.Failure.Message))
	case envelope.Success != nil:
		if envelope.Success.User == "" {
			return domainauth.Assertion{}, apperrors.ProtocolError("validate success without user")
		}
		return domainauth.Assertion{
			User:       envelope.Success.User,
			Attributes: envelope.Success.Attributes.Values,
		}, nil
	default:
		return domainauth.Assertion{}, apperrors.ProtocolError("validate response carries neither success nor failure")
	}
}

var _ ports.TicketValidator = (*Validator)(nil)
