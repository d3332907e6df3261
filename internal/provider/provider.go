// Package provider defines the vocabulary shared by both sides of the proxy
// boundary: the flat query parameter set sent with every series request,
// its well-known keys, and the typed errors raised when a request is built.
package provider

import (
	"fmt"
	"net/url"
	"sort"
)

// QueryParams is the flat parameter map forwarded with a series request.
// Common keys:
//   - "observation_start" : first observation date (YYYY-MM-DD)
//   - "observation_end"   : last observation date
//   - "frequency"         : sampling frequency ("m" = monthly)
//
// Keys set by the proxy itself (api_key, file_type) are overwritten there.
type QueryParams map[string]string

// Well-known query parameter keys.
const (
	ParamObservationStart = "observation_start"
	ParamObservationEnd   = "observation_end"
	ParamFrequency        = "frequency"
	ParamSeriesID         = "series_id"
	ParamAPIKey           = "api_key"
	ParamFileType         = "file_type"
)

// FrequencyMonthly is the upstream code for monthly sampling.
const FrequencyMonthly = "m"

// Values converts the parameters to url.Values.
func (p QueryParams) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// Encode returns the parameters URL-encoded in key order.
func (p QueryParams) Encode() string {
	return p.Values().Encode()
}

// Keys returns the parameter keys sorted.
func (p QueryParams) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of p.
func (p QueryParams) Clone() QueryParams {
	out := make(QueryParams, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrUnknownSeries is returned when a metric has no upstream series code.
type ErrUnknownSeries struct {
	Key string
}

func (e *ErrUnknownSeries) Error() string {
	return fmt.Sprintf("no upstream series mapped to %q", e.Key)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
