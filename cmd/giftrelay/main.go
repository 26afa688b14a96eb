// Command giftrelay collects host and network telemetry and relays it, along
// with any submitted gift-form data, to a configured Telegram chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prilive-com/giftrelay/clientctx"
	"github.com/prilive-com/giftrelay/delivery"
	"github.com/prilive-com/giftrelay/flow"
	"github.com/prilive-com/giftrelay/geoloc"
	"github.com/prilive-com/giftrelay/internal/httpclient"
	"github.com/prilive-com/giftrelay/message"
	"github.com/prilive-com/giftrelay/probe"
	"github.com/prilive-com/giftrelay/telemetry"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    *delivery.Config
	logger *slog.Logger
	dryRun bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "giftrelay",
		Short:         "Relay GiftFinder telemetry and submissions to a Telegram chat",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; the environment may already be set.
			_ = godotenv.Load()

			level := slog.LevelInfo
			if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)

			cfg, err := delivery.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "print the formatted message instead of sending")

	root.AddCommand(newVisitCmd(a))
	root.AddCommand(newSubmitCmd(a))
	return root
}

func newVisitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "visit",
		Short: "Send a one-shot visit notification with the collected client context",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			collector, sink := a.buildAggregator()
			if a.dryRun {
				fmt.Println(message.Visit(collector.Collect(ctx)))
				return nil
			}

			controller, closeClient, err := a.buildController(collector, flow.NopReporter{})
			if err != nil {
				return err
			}
			defer closeClient()

			controller.Visit(ctx)
			a.logger.Debug("visit flow finished", "telemetry_errors", sink.Len())
			return nil
		},
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	var form clientctx.FormSubmission

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send a gift-form submission with the collected client context",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			collector, _ := a.buildAggregator()
			if a.dryRun {
				if err := flow.Validate(form); err != nil {
					return err
				}
				fmt.Println(message.Submission(form, collector.Collect(ctx)))
				return nil
			}

			controller, closeClient, err := a.buildController(collector, consoleReporter{})
			if err != nil {
				return err
			}
			defer closeClient()

			return controller.Submit(ctx, form)
		},
	}

	cmd.Flags().StringVar(&form.SenderName, "sender", "", "sender name (required)")
	cmd.Flags().StringVar(&form.RecipientName, "recipient", "", "recipient name (required)")
	cmd.Flags().StringVar(&form.Relationship, "relationship", "", "relationship to the recipient (required)")
	cmd.Flags().StringVar(&form.Occasion, "occasion", "", "gift occasion (required)")
	cmd.Flags().StringVar(&form.Budget, "budget", "", "budget in dollars (required)")
	cmd.Flags().StringVar(&form.Interests, "interests", "", "recipient interests (required)")
	cmd.Flags().StringVar(&form.AgeRange, "age-range", "", "recipient age range")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "additional notes")
	return cmd
}

// buildAggregator wires the collectors for one run.
func (a *app) buildAggregator() (*clientctx.Aggregator, *telemetry.Sink) {
	sink := telemetry.NewSink()

	// No device geolocation capability on a headless host; the gate maps
	// this to the positional-unavailable code and the aggregator falls back
	// to the IP-derived location.
	locator := geoloc.LocatorFunc(func(ctx context.Context, opts geoloc.Options) (geoloc.Position, error) {
		return geoloc.Position{}, geoloc.NewGeoError(geoloc.CodePositionUnavailable, "no geolocation capability on this host")
	})
	gate := geoloc.NewGate(locator, geoloc.WithLogger(a.logger))

	httpc := httpclient.NewDefault()
	ip := probe.NewIPClient(a.cfg.IPLookupURL, a.cfg.IPGeoURL,
		probe.WithIPLogger(a.logger),
		probe.WithIPHTTPClient(httpc),
	)
	geocode := probe.NewGeocodeClient(a.cfg.ReverseGeocodeURL, httpc)

	return clientctx.NewAggregator(gate, ip, geocode, hostSignals(), sink,
		clientctx.WithLogger(a.logger),
	), sink
}

func (a *app) buildController(collector flow.Collector, reporter flow.StatusReporter) (*flow.Controller, func(), error) {
	if !a.cfg.IsConfigured() {
		// Both flows check the config before touching the deliverer, so a
		// client is never needed here. Submit surfaces the not-configured
		// status, Visit skips silently.
		controller := flow.NewController(collector, nil, *a.cfg,
			flow.WithLogger(a.logger),
			flow.WithStatusReporter(reporter),
		)
		return controller, func() {}, nil
	}

	client, err := delivery.New(*a.cfg, delivery.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}
	controller := flow.NewController(collector, client, *a.cfg,
		flow.WithLogger(a.logger),
		flow.WithStatusReporter(reporter),
	)
	return controller, func() { client.Close() }, nil
}

// hostSignals derives the synchronous signals from the host environment.
func hostSignals() clientctx.Signals {
	zone, _ := time.Now().Zone()
	return clientctx.Signals{
		Referrer:            os.Getenv("GIFTRELAY_REFERRER"),
		Language:            primaryLanguage(),
		Languages:           preferredLanguages(),
		Timezone:            zone,
		UserAgent:           fmt.Sprintf("giftrelay/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH),
		Platform:            runtime.GOOS,
		Vendor:              runtime.Version(),
		HardwareConcurrency: runtime.NumCPU(),
	}
}

func primaryLanguage() string {
	langs := preferredLanguages()
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

func preferredLanguages() []string {
	var langs []string
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LANG"} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		for _, part := range strings.Split(v, ":") {
			if tag, _, ok := strings.Cut(part, "."); ok {
				part = tag
			}
			if part != "" && part != "C" && part != "POSIX" {
				langs = append(langs, part)
			}
		}
	}
	return langs
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// consoleReporter prints status transitions to stdout.
type consoleReporter struct{}

func (consoleReporter) Info(msg string)    { fmt.Println(msg) }
func (consoleReporter) Success(msg string) { fmt.Println(msg) }
func (consoleReporter) Error(msg string)   { fmt.Fprintln(os.Stderr, msg) }
