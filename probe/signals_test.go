package probe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prilive-com/giftrelay/probe"
)

func TestNavigationTiming_Clamped(t *testing.T) {
	timing := probe.NavigationTiming{
		DNSLookup:        -5 * time.Millisecond,
		TCPConnect:       3 * time.Millisecond,
		TimeToFirstByte:  -1 * time.Nanosecond,
		DOMContentLoaded: 300 * time.Millisecond,
		TotalLoad:        800 * time.Millisecond,
		TransferBytes:    -10,
	}

	clamped := timing.Clamped()

	assert.Equal(t, time.Duration(0), clamped.DNSLookup)
	assert.Equal(t, 3*time.Millisecond, clamped.TCPConnect)
	assert.Equal(t, time.Duration(0), clamped.TimeToFirstByte)
	assert.Equal(t, 300*time.Millisecond, clamped.DOMContentLoaded)
	assert.Equal(t, 800*time.Millisecond, clamped.TotalLoad)
	assert.Equal(t, int64(0), clamped.TransferBytes)
}
