// Package probe implements the independent signal collectors feeding the
// client context: public IP lookup, IP-based geolocation, reverse geocoding,
// and the value types for client hints, network information, navigation
// timing and device features.
//
// Every collector is best effort. A failed probe returns its zero value and
// an error for the caller to record; no probe panics or aborts aggregation.
package probe
