package message_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/giftrelay/clientctx"
	"github.com/prilive-com/giftrelay/message"
	"github.com/prilive-com/giftrelay/probe"
	"github.com/prilive-com/giftrelay/telemetry"
)

func baseContext() clientctx.ClientContext {
	return clientctx.ClientContext{
		Referrer:  "https://example.com/",
		Language:  "en-US",
		Languages: []string{"en-US", "fr"},
		Timezone:  "Europe/Paris",
		Cookies:   "session=abc",
		UserAgent: "TestBrowser/1.0",
		Platform:  "linux",
	}
}

func baseForm() clientctx.FormSubmission {
	return clientctx.FormSubmission{
		SenderName:    "Ann",
		RecipientName: "Bo",
		Relationship:  "Friend",
		Occasion:      "Birthday",
		Budget:        "50",
		Interests:     "Books",
	}
}

func TestSubmission_EscapesHTMLMetacharacters(t *testing.T) {
	form := baseForm()
	form.SenderName = `<script>&"'`
	form.Notes = "a<b>c"

	cc := baseContext()
	cc.UserAgent = `Mozilla <5.0> & "friends"`

	out := message.Submission(form, cc)

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, `"friends"`)
	assert.Contains(t, out, "&lt;script&gt;&amp;")
	assert.Contains(t, out, "a&lt;b&gt;c")

	// Markup emitted by the formatter itself stays intact.
	assert.Contains(t, out, "<b>Sender:</b>")
}

func TestVisit_PlaceholderForAbsentFields(t *testing.T) {
	cc := baseContext()
	cc.Network = nil
	cc.ClientHints = nil
	cc.NavigationTiming = nil
	cc.Referrer = "   "

	out := message.Visit(cc)

	assert.Contains(t, out, "<b>Network:</b> "+message.NotAvailable)
	assert.Contains(t, out, "<b>Client hints:</b> "+message.NotAvailable)
	assert.Contains(t, out, "<b>Navigation timing:</b> "+message.NotAvailable)
	assert.Contains(t, out, "<b>Referrer:</b> "+message.NotAvailable)
}

func TestVisit_Idempotent(t *testing.T) {
	cc := baseContext()
	cc.Network = &probe.NetworkInfo{EffectiveType: "4g", DownlinkMbps: 10.5, RTTMillis: 40}
	cc.NavigationTiming = &probe.NavigationTiming{
		DNSLookup:        12 * time.Millisecond,
		TCPConnect:       3 * time.Millisecond,
		TimeToFirstByte:  120 * time.Millisecond,
		DOMContentLoaded: 300 * time.Millisecond,
		TotalLoad:        800 * time.Millisecond,
	}
	cc.Errors = []telemetry.Error{{Kind: "ip-lookup", Message: "lookup failed"}}

	first := message.Visit(cc)
	second := message.Visit(cc)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("formatter output not deterministic (-first +second):\n%s", diff)
	}
}

func TestVisit_SectionOrderFixed(t *testing.T) {
	out := message.Visit(baseContext())

	labels := []string{
		"<b>Client context</b>",
		"<b>Referrer:</b>",
		"<b>Preferred languages:</b>",
		"<b>Primary language:</b>",
		"<b>Timezone:</b>",
		"<b>Cookies:</b>",
		"<b>User agent:</b>",
		"<b>Platform:</b>",
		"<b>Network:</b>",
		"<b>Client hints:</b>",
		"<b>Navigation timing:</b>",
		"<b>Telemetry errors:</b>",
	}
	last := -1
	for _, label := range labels {
		idx := strings.Index(out, label)
		require.GreaterOrEqual(t, idx, 0, "missing %q", label)
		assert.Greater(t, idx, last, "%q out of order", label)
		last = idx
	}
}

func TestSubmission_IPFallbackLocationBlock(t *testing.T) {
	cc := baseContext()
	cc.Location = clientctx.LocationInfo{Resolved: &clientctx.ResolvedLocation{
		Latitude:  48.85,
		Longitude: 2.35,
		Address: &probe.Address{
			City:    "Paris",
			Country: "France",
		},
		IPAddress: "203.0.113.7",
		Source:    clientctx.SourceIP,
	}}
	cc.Errors = []telemetry.Error{{Kind: "geolocation", Message: "permission denied (code=1)"}}

	out := message.Submission(baseForm(), cc)

	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "Bo")
	assert.Contains(t, out, "<b>City:</b> Paris")
	assert.Contains(t, out, "<b>Country:</b> France")
	assert.Contains(t, out, "IP-based (approximate)")
	assert.NotContains(t, out, "goroutine", "no raw stack text in output")
}

func TestVisit_DeviceLocationBlock(t *testing.T) {
	cc := baseContext()
	cc.Location = clientctx.LocationInfo{Resolved: &clientctx.ResolvedLocation{
		Latitude:       48.856,
		Longitude:      2.352,
		AccuracyMeters: 10,
		Address: &probe.Address{
			City:    "Paris",
			Country: "France",
		},
		Source: clientctx.SourceDevice,
	}}

	out := message.Visit(cc)

	assert.Contains(t, out, "<b>Coordinates:</b> 48.856, 2.352")
	assert.Contains(t, out, "<b>Accuracy:</b> ±10m")
	assert.Contains(t, out, "<b>City:</b> Paris")
	assert.Contains(t, out, "<b>Country:</b> France")
	assert.Contains(t, out, "Device geolocation")
	assert.NotContains(t, out, "IP-based")
}

func TestVisit_UnavailableLocationBlock(t *testing.T) {
	cc := baseContext()
	cc.Location = clientctx.LocationInfo{Unavailable: &clientctx.UnavailableLocation{
		Reason:          "user denied the request",
		PermissionState: "denied",
		Code:            1,
		Guidance:        "Enable location access for this site and try again.",
		IPAddress:       "203.0.113.7",
	}}

	out := message.Visit(cc)

	assert.Contains(t, out, "<b>Location:</b> "+message.NotAvailable)
	assert.Contains(t, out, "<b>Location error:</b> user denied the request")
	assert.Contains(t, out, "<b>Permission state:</b> denied")
	assert.Contains(t, out, "<b>Guidance:</b>")
	assert.Contains(t, out, "<b>IP address:</b> 203.0.113.7")
}

func TestSubmission_OptionalFields(t *testing.T) {
	form := baseForm()
	out := message.Submission(form, baseContext())
	assert.NotContains(t, out, "<b>Age range:</b>")
	assert.NotContains(t, out, "<b>Notes:</b>")
	assert.Contains(t, out, "<b>Budget:</b> $50")

	form.AgeRange = "30-40"
	form.Notes = "wrap it"
	out = message.Submission(form, baseContext())
	assert.Contains(t, out, "<b>Age range:</b> 30-40")
	assert.Contains(t, out, "<b>Notes:</b> wrap it")
}

func TestVisit_OptionalSignals(t *testing.T) {
	cc := baseContext()
	out := message.Visit(cc)
	assert.NotContains(t, out, "<b>Current URL:</b>")
	assert.NotContains(t, out, "<b>Vendor:</b>")
	assert.NotContains(t, out, "<b>Hardware concurrency:</b>")

	cc.CurrentURL = "https://example.com/gift"
	cc.Vendor = "ExampleVendor"
	cc.HardwareConcurrency = 8
	out = message.Visit(cc)
	assert.Contains(t, out, "<b>Current URL:</b> https://example.com/gift")
	assert.Contains(t, out, "<b>Vendor:</b> ExampleVendor")
	assert.Contains(t, out, "<b>Hardware concurrency:</b> 8")
}

func TestVisit_TelemetryErrorList(t *testing.T) {
	cc := baseContext()
	out := message.Visit(cc)
	assert.Contains(t, out, "<b>Telemetry errors:</b> None captured")

	cc.Errors = []telemetry.Error{
		{Kind: "ip-lookup", Message: "lookup failed with status 500"},
		{Kind: "client-hints", Message: "capability <query> failed"},
	}
	out = message.Visit(cc)
	assert.Contains(t, out, "1. [ip-lookup] lookup failed with status 500")
	assert.Contains(t, out, "2. [client-hints] capability &lt;query&gt; failed")
}

func TestVisit_NavigationTimingMilliseconds(t *testing.T) {
	cc := baseContext()
	cc.NavigationTiming = &probe.NavigationTiming{
		DNSLookup:       12 * time.Millisecond,
		TimeToFirstByte: 120 * time.Millisecond,
		TotalLoad:       1500 * time.Millisecond,
	}

	out := message.Visit(cc)
	assert.Contains(t, out, "DNS lookup: 12 ms")
	assert.Contains(t, out, "Time to first byte: 120 ms")
	assert.Contains(t, out, "Total load: 1500 ms")
}
