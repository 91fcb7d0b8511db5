package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/natal-terminal/internal/aspects"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// DefaultTimeout bounds the ephemeris calls of one calculation
const DefaultTimeout = 5 * time.Second

// Recorder receives measurements of each calculation
type Recorder interface {
	RecordChart(system string, fallback bool, elapsed time.Duration)
	RecordProvider(body string, elapsed time.Duration)
	RecordError(component string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordChart(string, bool, time.Duration) {}
func (nopRecorder) RecordProvider(string, time.Duration)    {}
func (nopRecorder) RecordError(string, error)               {}

// Options configures a Calculator
type Options struct {
	Policy  houses.PolarPolicy
	Aspects aspects.Config
	// Timeout bounds all provider calls of one calculation; zero means DefaultTimeout
	Timeout time.Duration
	// Bodies to compute; nil means every body
	Bodies []ephemeris.Body
}

// DefaultOptions returns fallback polar policy, default orbs and DefaultTimeout
func DefaultOptions() Options {
	return Options{
		Policy:  houses.PolarFallback,
		Aspects: aspects.DefaultConfig(),
		Timeout: DefaultTimeout,
	}
}

// Calculator runs the whole pipeline from a birth moment to a chart.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	provider ephemeris.Provider
	opts     Options
	logger   *zap.Logger
	recorder Recorder
}

// NewCalculator creates a calculator reading positions from provider
func NewCalculator(provider ephemeris.Provider, opts Options) *Calculator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Aspects.Orbs == nil {
		opts.Aspects = aspects.DefaultConfig()
	}
	if opts.Bodies == nil {
		opts.Bodies = ephemeris.Bodies()
	}
	return &Calculator{
		provider: provider,
		opts:     opts,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
}

// WithLogger returns a copy of c that logs to logger
func (c *Calculator) WithLogger(logger *zap.Logger) *Calculator {
	cp := *c
	if logger != nil {
		cp.logger = logger
	}
	return &cp
}

// WithRecorder returns a copy of c that reports measurements to r
func (c *Calculator) WithRecorder(r Recorder) *Calculator {
	cp := *c
	if r != nil {
		cp.recorder = r
	}
	return &cp
}

// Options returns the calculator's configuration
func (c *Calculator) Options() Options {
	return c.opts
}

// Calculate computes the chart for birth using the requested house system.
// On any error no chart is returned.
func (c *Calculator) Calculate(ctx context.Context, birth models.BirthMoment, system houses.System) (Chart, error) {
	start := time.Now()

	ch, err := c.calculate(ctx, birth, system)
	if err != nil {
		c.recorder.RecordError("calculator", err)
		c.logger.Warn("chart calculation failed",
			zap.String("birth", birth.String()),
			zap.String("system", system.String()),
			zap.String("code", string(models.CodeOf(err))),
			zap.Error(err))
		return Chart{}, err
	}

	elapsed := time.Since(start)
	c.recorder.RecordChart(ch.System().String(), ch.Fallback(), elapsed)
	c.logger.Debug("chart calculated",
		zap.Float64("julian_day", float64(ch.JulianDay())),
		zap.String("requested", system.String()),
		zap.String("system", ch.System().String()),
		zap.Bool("fallback", ch.Fallback()),
		zap.Int("aspects", len(ch.aspects)),
		zap.Duration("elapsed", elapsed))
	return ch, nil
}

func (c *Calculator) calculate(ctx context.Context, birth models.BirthMoment, system houses.System) (Chart, error) {
	if birth.Location() == nil {
		return Chart{}, fmt.Errorf("birth moment was not constructed: %w", models.ErrInvalidDate)
	}
	jd := julian.FromTime(birth.UTC())

	hr, err := houses.Compute(jd, birth.Latitude(), birth.Longitude(), system, houses.Options{Policy: c.opts.Policy})
	if err != nil {
		return Chart{}, err
	}

	positions, err := c.positions(ctx, jd)
	if err != nil {
		return Chart{}, err
	}

	return Assemble(birth, jd, positions, hr, c.opts.Aspects), nil
}

// positions fetches every body concurrently under one timeout
func (c *Calculator) positions(ctx context.Context, jd julian.Day) ([]ephemeris.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	out := make([]ephemeris.Position, len(c.opts.Bodies))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range c.opts.Bodies {
		g.Go(func() error {
			t0 := time.Now()
			p, err := c.provider.Position(gctx, jd, b)
			c.recorder.RecordProvider(b.Key(), time.Since(t0))
			if err != nil {
				return fmt.Errorf("position of %s: %w", b, err)
			}
			if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || math.IsNaN(p.Speed) {
				return fmt.Errorf("position of %s is not a number: %w", b, models.ErrEphemerisUnavailable)
			}
			p.Body = b
			p.Longitude = zodiac.Normalize(p.Longitude)
			out[i] = p
			return nil
		})
	}

	// a provider that ignores ctx must not hold the caller past the timeout
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if !errors.Is(err, models.ErrEphemerisUnavailable) {
			err = fmt.Errorf("%v: %w", err, models.ErrEphemerisUnavailable)
		}
		return nil, err
	}
	return out, nil
}
