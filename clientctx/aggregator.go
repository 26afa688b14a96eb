package clientctx

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prilive-com/giftrelay/geoloc"
	"github.com/prilive-com/giftrelay/internal/syncutil"
	"github.com/prilive-com/giftrelay/probe"
	"github.com/prilive-com/giftrelay/telemetry"
)

// Aggregator runs all collectors and merges their results into one
// ClientContext. Collection never fails: every probe degrades independently
// and an unexpected fault yields a minimal context.
type Aggregator struct {
	gate    *geoloc.Gate
	ip      *probe.IPClient
	geocode *probe.GeocodeClient
	hints   probe.HintsProvider
	signals Signals
	sink    *telemetry.Sink
	logger  *slog.Logger
}

// AggregatorOption configures the Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// WithHints sets the client-hints provider. Without one the capability is
// treated as absent.
func WithHints(p probe.HintsProvider) AggregatorOption {
	return func(a *Aggregator) { a.hints = p }
}

// NewAggregator wires the collectors together. The sink receives a record
// for every probe failure and is folded into the built context.
func NewAggregator(gate *geoloc.Gate, ip *probe.IPClient, geocode *probe.GeocodeClient, signals Signals, sink *telemetry.Sink, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		gate:    gate,
		ip:      ip,
		geocode: geocode,
		signals: signals,
		sink:    sink,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Collect builds a fresh ClientContext. The location pipeline and the
// client-hints probe run concurrently; a failure in one never cancels the
// other. A panic inside a collector is recorded and degrades that collector
// to an absent result; a panic in the merge itself answers with the minimal
// context. Either way message delivery is never aborted by a
// context-collection fault.
func (a *Aggregator) Collect(ctx context.Context) (cc ClientContext) {
	defer func() {
		if v := recover(); v != nil {
			a.sink.Record("context", telemetry.Stringify(v))
			a.logger.Error("context collection fault", "panic", telemetry.Stringify(v))
			cc = a.minimal()
		}
	}()

	var (
		wg    sync.WaitGroup
		loc   LocationInfo
		hints *probe.ClientHints
	)
	syncutil.Go(&wg, func() {
		defer a.sink.CapturePanic("location")
		loc = a.resolveLocation(ctx)
	})
	syncutil.Go(&wg, func() {
		defer a.sink.CapturePanic("client-hints")
		hints = a.collectHints(ctx)
	})
	wg.Wait()

	cc = a.minimal()
	cc.Network = a.signals.Network
	cc.ClientHints = hints
	if t := a.signals.NavigationTiming; t != nil {
		clamped := t.Clamped()
		cc.NavigationTiming = &clamped
	}
	cc.Device = a.signals.Device
	cc.Location = loc
	cc.Errors = a.sink.Errors()
	return cc
}

// minimal is the degraded context used when aggregation itself faults: the
// synchronous signals plus whatever the sink has captured so far.
func (a *Aggregator) minimal() ClientContext {
	return ClientContext{
		Referrer:            a.signals.Referrer,
		CurrentURL:          a.signals.CurrentURL,
		Language:            a.signals.Language,
		Languages:           a.signals.Languages,
		Timezone:            a.signals.Timezone,
		Cookies:             a.signals.Cookies,
		UserAgent:           a.signals.UserAgent,
		Platform:            a.signals.Platform,
		Vendor:              a.signals.Vendor,
		HardwareConcurrency: a.signals.HardwareConcurrency,
		Errors:              a.sink.Errors(),
	}
}

// resolveLocation merges device geolocation, reverse geocoding and the
// IP-lookup fallback into one LocationInfo.
func (a *Aggregator) resolveLocation(ctx context.Context) LocationInfo {
	// The address echo runs alongside the geolocation request; its result is
	// attached to whichever variant wins.
	var (
		wg sync.WaitGroup
		ip string
	)
	syncutil.Go(&wg, func() {
		addr, err := a.ip.PublicIP(ctx)
		if err != nil {
			a.sink.RecordError("ip-lookup", err)
			return
		}
		ip = addr
	})

	pos, err := a.gate.Request(ctx)
	if err == nil {
		addr, gerr := a.geocode.Reverse(ctx, pos.Latitude, pos.Longitude)
		if gerr != nil {
			a.sink.RecordError("reverse-geocode", gerr)
			addr = nil
		}
		wg.Wait()
		return LocationInfo{Resolved: &ResolvedLocation{
			Latitude:       pos.Latitude,
			Longitude:      pos.Longitude,
			AccuracyMeters: pos.AccuracyMeters,
			Address:        addr,
			IPAddress:      ip,
			Timezone:       a.signals.Timezone,
			Source:         SourceDevice,
		}}
	}
	a.sink.RecordError("geolocation", err)

	// Device geolocation failed; fall back to the coarse IP-derived position.
	geo, ferr := a.ip.GeoByIP(ctx)
	wg.Wait()
	if ferr == nil && geo != nil {
		if ip == "" {
			ip = geo.IP
		}
		return LocationInfo{Resolved: &ResolvedLocation{
			Latitude:  geo.Latitude,
			Longitude: geo.Longitude,
			Address: &probe.Address{
				City:       geo.City,
				State:      geo.Region,
				PostalCode: geo.Postal,
				Country:    geo.CountryName,
			},
			IPAddress: ip,
			Org:       geo.Org,
			Timezone:  geo.Timezone,
			Source:    SourceIP,
		}}
	}
	a.sink.RecordError("ip-geo", ferr)

	return LocationInfo{Unavailable: a.unavailable(err, ip)}
}

func (a *Aggregator) unavailable(err error, ip string) *UnavailableLocation {
	u := &UnavailableLocation{
		Reason:    err.Error(),
		IPAddress: ip,
	}
	var ge *geoloc.GeoError
	if errors.As(err, &ge) {
		u.Code = ge.Code
		u.Reason = ge.Message
		u.Guidance = ge.UserMessage
		if ge.Code == geoloc.CodePermissionDenied {
			u.PermissionState = "denied"
		}
	} else {
		u.Guidance = geoloc.Guidance(0)
	}
	return u
}

// collectHints queries the client-hints provider, treating an absent
// capability as a nil result.
func (a *Aggregator) collectHints(ctx context.Context) *probe.ClientHints {
	if a.hints == nil {
		return nil
	}
	hints, err := a.hints.HighEntropyHints(ctx)
	if err != nil {
		a.sink.RecordError("client-hints", err)
		return nil
	}
	return hints
}
