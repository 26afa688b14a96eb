package telemetry_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/giftrelay/telemetry"
)

func TestSink_RecordsInOrder(t *testing.T) {
	sink := telemetry.NewSink()

	sink.Record("ip-lookup", "lookup failed with status 500")
	sink.RecordError("client-hints", errors.New("capability query failed"))
	sink.RecordError("noop", nil) // no-op

	errs := sink.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "ip-lookup", errs[0].Kind)
	assert.Equal(t, "lookup failed with status 500", errs[0].Message)
	assert.Equal(t, "client-hints", errs[1].Kind)
}

func TestSink_Timestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sink := telemetry.NewSinkWithClock(func() time.Time { return now })

	sink.Record("error", "boom")

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, now, errs[0].Timestamp)
}

func TestSink_ScriptErrorMetadata(t *testing.T) {
	sink := telemetry.NewSink()
	sink.RecordScriptError("undefined is not a function", "app.js", 42, 7)

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "error", errs[0].Kind)
	assert.Equal(t, "app.js", errs[0].Source)
	assert.Equal(t, 42, errs[0].Line)
	assert.Equal(t, 7, errs[0].Column)
}

func TestSink_CapturePanic(t *testing.T) {
	tests := []struct {
		name  string
		panic any
		want  string
	}{
		{"error value", errors.New("broken"), "broken"},
		{"string value", "just a string", "just a string"},
		{"arbitrary value", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := telemetry.NewSink()

			func() {
				defer sink.CapturePanic("unhandledrejection")
				panic(tt.panic)
			}()

			errs := sink.Errors()
			require.Len(t, errs, 1)
			assert.Equal(t, "unhandledrejection", errs[0].Kind)
			assert.Equal(t, tt.want, errs[0].Message)
		})
	}
}

func TestSink_CapturePanic_NoPanic(t *testing.T) {
	sink := telemetry.NewSink()
	func() {
		defer sink.CapturePanic("context")
	}()
	assert.Equal(t, 0, sink.Len())
}

func TestSink_ConcurrentRecords(t *testing.T) {
	sink := telemetry.NewSink()

	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Record("error", "concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, sink.Len())
}

func TestSink_ErrorsReturnsCopy(t *testing.T) {
	sink := telemetry.NewSink()
	sink.Record("error", "first")

	errs := sink.Errors()
	errs[0].Message = "mutated"

	assert.Equal(t, "first", sink.Errors()[0].Message)
}
