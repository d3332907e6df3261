package dashboard

import (
	"errors"
	"fmt"

	"github.com/seenimoa/housingdash/pkg/models"
)

var (
	// ErrBackendUnreachable means the proxy health probe failed.
	ErrBackendUnreachable = errors.New("proxy server is not reachable")

	// ErrNoData means every series came back without a usable observation.
	ErrNoData = errors.New("no data available for any series")
)

// ErrorKind classifies a failed series fetch.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network" // request could not be sent or no response
	KindStatus  ErrorKind = "status"  // non-2xx response
	KindDecode  ErrorKind = "decode"  // body is not a valid observations payload
)

// FetchError describes why one series could not be fetched.
type FetchError struct {
	Metric  models.Metric
	Series  string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s (%s): %s: status %d: %s", e.Metric, e.Series, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s (%s): %s: %s", e.Metric, e.Series, e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the settled outcome of one series fetch. Exactly one of Payload
// and Err is set.
type Result struct {
	Metric  models.Metric
	Series  string
	Payload *models.ObservationsResponse
	Err     *FetchError
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Payload != nil
}

// Observations returns the fetched observations, or nil for a failed fetch.
func (r Result) Observations() []models.Observation {
	if !r.OK() {
		return nil
	}
	return r.Payload.Observations
}

// Outcome is the fetch outcome label: "ok" or the error kind.
func (r Result) Outcome() string {
	if r.OK() {
		return "ok"
	}
	if r.Err == nil {
		return string(KindDecode)
	}
	return string(r.Err.Kind)
}
