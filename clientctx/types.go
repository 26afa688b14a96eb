// Package clientctx defines the aggregated client context record and the
// collector that builds it from heterogeneous, partially available signals.
package clientctx

import (
	"github.com/prilive-com/giftrelay/probe"
	"github.com/prilive-com/giftrelay/telemetry"
)

// Source tags how a location was obtained.
type Source string

const (
	// SourceDevice marks a position from the device geolocation capability,
	// optionally enriched by reverse geocoding.
	SourceDevice Source = "device"
	// SourceIP marks an approximate position derived from the caller's IP
	// address. Lower confidence, no permission prompt involved.
	SourceIP Source = "ip"
)

// ResolvedLocation is the resolved variant of LocationInfo.
type ResolvedLocation struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	Address        *probe.Address
	IPAddress      string
	Org            string
	Timezone       string
	Source         Source
}

// UnavailableLocation is the failed variant of LocationInfo. It keeps the
// original platform failure alongside guidance text for the user.
type UnavailableLocation struct {
	Reason          string
	PermissionState string
	Code            int
	Guidance        string
	IPAddress       string
}

// LocationInfo is a tagged variant: exactly one of Resolved or Unavailable
// is set once location resolution completes.
type LocationInfo struct {
	Resolved    *ResolvedLocation
	Unavailable *UnavailableLocation
}

// IsResolved reports whether a usable position was obtained.
func (l LocationInfo) IsResolved() bool { return l.Resolved != nil }

// Signals are the synchronous platform values read directly at collection
// time. The host environment (an external collaborator) fills them in.
type Signals struct {
	Referrer            string
	CurrentURL          string
	Language            string
	Languages           []string
	Timezone            string
	Cookies             string
	UserAgent           string
	Platform            string
	Vendor              string
	HardwareConcurrency int

	Network          *probe.NetworkInfo
	NavigationTiming *probe.NavigationTiming
	Device           *probe.DeviceInfo
}

// ClientContext is the merged record of everything known about one client
// session. It is built fresh per outbound message and immutable once built.
type ClientContext struct {
	Referrer            string
	CurrentURL          string
	Language            string
	Languages           []string
	Timezone            string
	Cookies             string
	UserAgent           string
	Platform            string
	Vendor              string
	HardwareConcurrency int

	Network          *probe.NetworkInfo
	ClientHints      *probe.ClientHints
	NavigationTiming *probe.NavigationTiming
	Device           *probe.DeviceInfo

	Location LocationInfo

	// Errors is the captured telemetry log at the moment the context was
	// sealed, in capture order.
	Errors []telemetry.Error
}

// FormSubmission carries the submitted form fields. Required-field
// enforcement happens in the flow layer, not here.
type FormSubmission struct {
	SenderName    string
	RecipientName string
	Relationship  string
	Occasion      string
	Budget        string
	Interests     string
	AgeRange      string
	Notes         string
}
