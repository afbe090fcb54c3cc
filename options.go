package slotdispatch

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// probeOptions holds configuration options for Probe creation.
type probeOptions struct {
	variant    Variant
	iterations int
	interval   time.Duration
	mode       DeliveryMode
	logger     *logiface.Logger[logiface.Event]
}

// --- Probe Options ---

// Option configures a Probe instance.
type Option interface {
	applyProbe(*probeOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyProbeFunc func(*probeOptions) error
}

func (o *optionImpl) applyProbe(opts *probeOptions) error {
	return o.applyProbeFunc(opts)
}

// WithVariant selects which receiver implementation the probe constructs.
// The default is [VariantDerived], the configuration the Qt bug report was
// about.
func WithVariant(v Variant) Option {
	return &optionImpl{func(opts *probeOptions) error {
		if _, err := ParseVariant(string(v)); err != nil {
			return err
		}
		opts.variant = v
		return nil
	}}
}

// WithIterations sets the transmitter's fixed iteration count. Must be
// positive. The default is 3.
func WithIterations(n int) Option {
	return &optionImpl{func(opts *probeOptions) error {
		if n <= 0 {
			return fmt.Errorf("slotdispatch: iterations must be positive, got %d", n)
		}
		opts.iterations = n
		return nil
	}}
}

// WithInterval sets the transmitter's pause between emissions. The default
// is 1 second, matching the C++ repro; tests set it much lower.
func WithInterval(d time.Duration) Option {
	return &optionImpl{func(opts *probeOptions) error {
		if d < 0 {
			return fmt.Errorf("slotdispatch: interval must not be negative, got %v", d)
		}
		opts.interval = d
		return nil
	}}
}

// WithDeliveryMode sets the delivery mode used for the tick connection.
// The default is [DeliverToCurrentOwner]; [DeliverToConnectTimeOwner]
// reproduces the stale-affinity failure mode for regression coverage.
func WithDeliveryMode(m DeliveryMode) Option {
	return &optionImpl{func(opts *probeOptions) error {
		switch m {
		case DeliverToCurrentOwner, DeliverToConnectTimeOwner:
			opts.mode = m
			return nil
		default:
			return fmt.Errorf("slotdispatch: unknown delivery mode %d", m)
		}
	}}
}

// WithLogger attaches a structured logger to the probe and everything it
// constructs. A nil logger disables logging; the transcript is still
// recorded either way.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *probeOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveProbeOptions applies Option instances to probeOptions.
func resolveProbeOptions(opts []Option) (*probeOptions, error) {
	cfg := &probeOptions{
		variant:    VariantDerived,
		iterations: defaultIterations,
		interval:   defaultInterval,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyProbe(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// --- Thread Options ---

// ThreadOption configures a Thread instance.
type ThreadOption interface {
	applyThread(*Thread)
}

// threadOptionImpl implements ThreadOption.
type threadOptionImpl struct {
	applyThreadFunc func(*Thread)
}

func (o *threadOptionImpl) applyThread(t *Thread) {
	o.applyThreadFunc(t)
}

// WithThreadLogger attaches a structured logger to the thread. A nil logger
// disables logging.
func WithThreadLogger(logger *logiface.Logger[logiface.Event]) ThreadOption {
	return &threadOptionImpl{func(t *Thread) {
		t.logger = logger
	}}
}
