package probe

import (
	"context"
	"time"
)

// NetworkInfo is a snapshot of the host connection, when the platform
// exposes one.
type NetworkInfo struct {
	EffectiveType string  `json:"effectiveType"`
	DownlinkMbps  float64 `json:"downlink"`
	RTTMillis     int     `json:"rtt"`
	SaveData      bool    `json:"saveData"`
}

// ClientHints carries high-entropy user-agent data. Available only when the
// platform supports the capability.
type ClientHints struct {
	Brands          []string `json:"brands"`
	Mobile          bool     `json:"mobile"`
	Architecture    string   `json:"architecture"`
	Bitness         string   `json:"bitness"`
	Model           string   `json:"model"`
	Platform        string   `json:"platform"`
	PlatformVersion string   `json:"platformVersion"`
	FullVersion     string   `json:"uaFullVersion"`
}

// HintsProvider queries high-entropy user-agent data. Implementations return
// (nil, nil) when the capability does not exist on the platform.
type HintsProvider interface {
	HighEntropyHints(ctx context.Context) (*ClientHints, error)
}

// HintsProviderFunc adapts a function to the HintsProvider interface.
type HintsProviderFunc func(ctx context.Context) (*ClientHints, error)

func (f HintsProviderFunc) HighEntropyHints(ctx context.Context) (*ClientHints, error) {
	return f(ctx)
}

// NavigationTiming holds page-load phase durations derived from the
// navigation timing entry.
type NavigationTiming struct {
	DNSLookup        time.Duration `json:"dnsLookup"`
	TCPConnect       time.Duration `json:"tcpConnect"`
	TimeToFirstByte  time.Duration `json:"timeToFirstByte"`
	DOMContentLoaded time.Duration `json:"domContentLoaded"`
	TotalLoad        time.Duration `json:"totalLoad"`
	TransferBytes    int64         `json:"transferBytes"`
}

// Clamped returns a copy with every negative duration raised to zero.
// Timing entries can report phases out of order on some platforms.
func (t NavigationTiming) Clamped() NavigationTiming {
	clamp := func(d time.Duration) time.Duration {
		if d < 0 {
			return 0
		}
		return d
	}
	return NavigationTiming{
		DNSLookup:        clamp(t.DNSLookup),
		TCPConnect:       clamp(t.TCPConnect),
		TimeToFirstByte:  clamp(t.TimeToFirstByte),
		DOMContentLoaded: clamp(t.DOMContentLoaded),
		TotalLoad:        clamp(t.TotalLoad),
		TransferBytes:    max(t.TransferBytes, 0),
	}
}

// DeviceInfo is the synchronous screen/device/feature snapshot. It has no
// failure path; absent capabilities read as their zero values.
type DeviceInfo struct {
	ScreenResolution string  `json:"screenResolution"`
	AvailableScreen  string  `json:"availableScreen"`
	ColorDepth       int     `json:"colorDepth"`
	PixelRatio       float64 `json:"pixelRatio"`
	Viewport         string  `json:"viewport"`
	Orientation      string  `json:"orientation"`
	CookiesEnabled   bool    `json:"cookiesEnabled"`
	DoNotTrack       string  `json:"doNotTrack"`
	Online           bool    `json:"online"`
	TouchSupport     bool    `json:"touchSupport"`
	LocalStorage     bool    `json:"localStorage"`
	SessionStorage   bool    `json:"sessionStorage"`
	WebGL            bool    `json:"webGL"`
}
