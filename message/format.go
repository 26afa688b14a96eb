// Package message renders a client context (plus optional form fields) into
// the HTML-parsed text delivered to the chat.
//
// Formatting is pure and deterministic: the same input always produces
// byte-identical output, every interpolated value is entity-escaped, and a
// missing value renders as the "Not available" placeholder rather than
// faulting. No length capping happens here; the remote endpoint enforces its
// own limits.
package message

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/prilive-com/giftrelay/clientctx"
	"github.com/prilive-com/giftrelay/probe"
	"github.com/prilive-com/giftrelay/telemetry"
)

// NotAvailable is the placeholder for absent or blank values.
const NotAvailable = "Not available"

// Source tags shown in the location block.
const (
	deviceSourceLabel = "Device geolocation"
	ipSourceLabel     = "IP-based (approximate)"
)

// Visit renders the page-visit notification shape: context only.
func Visit(cc clientctx.ClientContext) string {
	lines := []string{
		"<b>New GiftFinder visit</b>",
		"",
	}
	lines = append(lines, contextLines(cc)...)
	return strings.Join(lines, "\n")
}

// Submission renders the form-submission shape: submitted fields first, then
// the client context.
func Submission(form clientctx.FormSubmission, cc clientctx.ClientContext) string {
	lines := []string{
		"<b>New GiftFinder submission</b>",
		"",
	}
	lines = appendField(lines, "Sender", form.SenderName)
	lines = appendField(lines, "Recipient", form.RecipientName)
	lines = appendField(lines, "Relationship", form.Relationship)
	lines = appendField(lines, "Occasion", form.Occasion)
	lines = append(lines, "<b>Budget:</b> $"+escape(form.Budget))
	lines = appendField(lines, "Interests", form.Interests)
	if form.AgeRange != "" {
		lines = appendField(lines, "Age range", form.AgeRange)
	}
	if form.Notes != "" {
		lines = appendField(lines, "Notes", form.Notes)
	}
	lines = append(lines, "")
	lines = append(lines, contextLines(cc)...)
	return strings.Join(lines, "\n")
}

// contextLines renders the client context in its fixed section order.
func contextLines(cc clientctx.ClientContext) []string {
	lines := []string{"<b>Client context</b>"}

	lines = append(lines, locationLines(cc.Location)...)

	lines = appendField(lines, "Referrer", orPlaceholder(cc.Referrer))
	if cc.CurrentURL != "" {
		lines = appendField(lines, "Current URL", cc.CurrentURL)
	}
	lines = appendField(lines, "Preferred languages", renderStrings(cc.Languages))
	lines = appendField(lines, "Primary language", orPlaceholder(cc.Language))
	lines = appendField(lines, "Timezone", orPlaceholder(cc.Timezone))
	lines = appendField(lines, "Cookies", orPlaceholder(cc.Cookies))
	lines = appendField(lines, "User agent", orPlaceholder(cc.UserAgent))
	lines = appendField(lines, "Platform", orPlaceholder(cc.Platform))
	if cc.Vendor != "" {
		lines = appendField(lines, "Vendor", cc.Vendor)
	}
	if cc.HardwareConcurrency > 0 {
		lines = appendField(lines, "Hardware concurrency", strconv.Itoa(cc.HardwareConcurrency))
	}

	if cc.Network != nil {
		lines = appendField(lines, "Network", renderJSON(cc.Network))
	} else {
		lines = appendField(lines, "Network", NotAvailable)
	}
	if cc.ClientHints != nil {
		lines = appendField(lines, "Client hints", renderJSON(cc.ClientHints))
	} else {
		lines = appendField(lines, "Client hints", NotAvailable)
	}
	if cc.NavigationTiming != nil {
		lines = appendField(lines, "Navigation timing", renderTiming(*cc.NavigationTiming))
	} else {
		lines = appendField(lines, "Navigation timing", NotAvailable)
	}
	if cc.Device != nil {
		lines = appendField(lines, "Device", renderJSON(cc.Device))
	}

	lines = append(lines, errorLines(cc.Errors)...)
	return lines
}

// locationLines renders the location block. Lines for absent parts are
// omitted; the source tag distinguishes device resolution from the IP-based
// fallback.
func locationLines(loc clientctx.LocationInfo) []string {
	var lines []string

	if u := loc.Unavailable; u != nil {
		lines = appendField(lines, "Location", NotAvailable)
		if u.Reason != "" {
			lines = appendField(lines, "Location error", u.Reason)
		}
		if u.PermissionState != "" {
			lines = appendField(lines, "Permission state", u.PermissionState)
		}
		if u.Guidance != "" {
			lines = appendField(lines, "Guidance", u.Guidance)
		}
		if u.IPAddress != "" {
			lines = appendField(lines, "IP address", u.IPAddress)
		}
		return lines
	}

	r := loc.Resolved
	if r == nil {
		return appendField(lines, "Location", NotAvailable)
	}

	sourceLabel := deviceSourceLabel
	if r.Source == clientctx.SourceIP {
		sourceLabel = ipSourceLabel
	}
	lines = appendField(lines, "Location source", sourceLabel)
	lines = appendField(lines, "Coordinates", coordinates(r.Latitude, r.Longitude))
	if a := r.Address; a != nil {
		if a.Line != "" {
			lines = appendField(lines, "Address", a.Line)
		}
		if a.City != "" {
			lines = appendField(lines, "City", a.City)
		}
		if a.State != "" {
			lines = appendField(lines, "State", a.State)
		}
		if a.PostalCode != "" {
			lines = appendField(lines, "Postal code", a.PostalCode)
		}
		if a.Country != "" {
			lines = appendField(lines, "Country", a.Country)
		}
	}
	if r.IPAddress != "" {
		lines = appendField(lines, "IP address", r.IPAddress)
	}
	if r.Org != "" {
		lines = appendField(lines, "Org", r.Org)
	}
	if r.AccuracyMeters > 0 {
		lines = appendField(lines, "Accuracy", fmt.Sprintf("±%.0fm", r.AccuracyMeters))
	}
	if r.Timezone != "" {
		lines = appendField(lines, "Location timezone", r.Timezone)
	}
	return lines
}

func errorLines(errs []telemetry.Error) []string {
	if len(errs) == 0 {
		return []string{"<b>Telemetry errors:</b> None captured"}
	}
	lines := []string{"<b>Telemetry errors:</b>"}
	for i, e := range errs {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s", i+1, escape(e.Kind), escape(e.Message)))
	}
	return lines
}

func appendField(lines []string, label, value string) []string {
	return append(lines, "<b>"+label+":</b> "+escape(value))
}

func escape(s string) string { return html.EscapeString(s) }

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func renderStrings(values []string) string {
	if values == nil {
		return NotAvailable
	}
	if len(values) == 0 {
		return "[]"
	}
	return strings.Join(values, ", ")
}

// renderJSON pretty-prints a structured value, falling back to plain
// formatting if serialization fails.
func renderJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// renderTiming formats page-load phases as whole milliseconds in a fixed
// order.
func renderTiming(t probe.NavigationTiming) string {
	parts := []string{
		"DNS lookup: " + ms(t.DNSLookup),
		"TCP connect: " + ms(t.TCPConnect),
		"Time to first byte: " + ms(t.TimeToFirstByte),
		"DOM content loaded: " + ms(t.DOMContentLoaded),
		"Total load: " + ms(t.TotalLoad),
	}
	if t.TransferBytes > 0 {
		parts = append(parts, fmt.Sprintf("Transfer size: %d KB", t.TransferBytes/1024))
	}
	return strings.Join(parts, ", ")
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + " ms"
}

func coordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
}
