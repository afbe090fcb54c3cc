// Command slotprobe runs the two-thread queued delivery affinity probe and
// verifies its transcript.
//
// The probe constructs a transmitter and a receiver, moves each to its own
// thread of control, and checks that every tick delivered to the receiver
// executes the receiver's runtime implementation on the receiver's current
// owning thread. Run with --variant derived (the default) for the
// overridden-slot configuration the Qt bug report was about, or
// --variant base for the contrasting scenario.
//
// Flags may also be supplied via SLOTPROBE_* environment variables, e.g.
// SLOTPROBE_VARIANT=base SLOTPROBE_INTERVAL=100ms.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	slotdispatch "github.com/RudolfCardinal/go-slotdispatch"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "slotprobe",
		Short: "Probe queued signal delivery affinity for overridden slots",
		Long: `Runs a two-thread producer/consumer scenario probing that queued signal
deliveries to a receiver execute (a) the receiver's runtime implementation
and (b) on the receiver's current owning thread, after the receiver has
been moved to that thread post-construction.

Exits 0 if every delivery satisfied both properties, 1 otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	cmd.Flags().String("variant", slotdispatch.VariantDerived.String(),
		"receiver variant: "+variantList())
	cmd.Flags().Int("count", 3, "transmitter iteration count")
	cmd.Flags().Duration("interval", time.Second, "pause between emissions")
	cmd.Flags().String("delivery", slotdispatch.DeliverToCurrentOwner.String(),
		"delivery mode: current-owner or connect-time-owner")
	cmd.Flags().Bool("debug", false,
		"debug logging: emission traces and object/thread identity dumps")

	v.SetEnvPrefix("SLOTPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	variant, err := slotdispatch.ParseVariant(v.GetString("variant"))
	if err != nil {
		return err
	}
	mode, err := parseDeliveryMode(v.GetString("delivery"))
	if err != nil {
		return err
	}

	level := logiface.LevelInformational
	if v.GetBool("debug") {
		level = logiface.LevelDebug
	}
	logger := logiface.New(
		stumpy.WithStumpy(
			stumpy.WithWriter(cmd.OutOrStdout()),
			stumpy.WithTimeField("t"),
			stumpy.WithLevelField("lvl"),
		),
		logiface.WithLevel[*stumpy.Event](level),
	).Logger()

	probe, err := slotdispatch.New(
		slotdispatch.WithVariant(variant),
		slotdispatch.WithIterations(v.GetInt("count")),
		slotdispatch.WithInterval(v.GetDuration("interval")),
		slotdispatch.WithDeliveryMode(mode),
		slotdispatch.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := probe.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Verify(); err != nil {
		logger.Err().
			Err(err).
			Str("variant", variant.String()).
			Log("delivery affinity check failed")
		return err
	}

	logger.Info().
		Str("variant", variant.String()).
		Int("deliveries", len(report.Deliveries())).
		Uint64("rx_tid", report.RxThreadID).
		Log("delivery affinity verified")
	return nil
}

func parseDeliveryMode(s string) (slotdispatch.DeliveryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case slotdispatch.DeliverToCurrentOwner.String():
		return slotdispatch.DeliverToCurrentOwner, nil
	case slotdispatch.DeliverToConnectTimeOwner.String():
		return slotdispatch.DeliverToConnectTimeOwner, nil
	default:
		return 0, fmt.Errorf("unknown delivery mode %q", s)
	}
}

func variantList() string {
	variants := slotdispatch.Variants()
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}
