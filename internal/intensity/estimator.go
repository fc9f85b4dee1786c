//
//
package intensity

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData is returned when the sample cannot support an estimate:
// no arrivals, a collapsed window, or a non-finite rate.
var ErrInsufficientData = errors.New("insufficient data")

// DefaultResolution is the number of evaluation points of a curve.
const DefaultResolution = 1000

// Point is one evaluation of the rate function.
type Point struct {
	Minutes float64 // offset from the epoch
	Value   float64 // arrivals per minute
}

// Curve is the rate function sampled on an even grid over [0, now].
type Curve struct {
	Points []Point
}

// Empty reports whether the curve has no points.
func (c Curve) Empty() bool {
	return len(c.Points) == 0
}

// Values returns the rate values in grid order.
func (c Curve) Values() []float64 {
	values := make([]float64, len(c.Points))
	for i, p := range c.Points {
		values[i] = p.Value
	}
	return values
}

// Times converts the grid offsets back to absolute instants.
func (c Curve) Times(epoch time.Time) []time.Time {
	times := make([]time.Time, len(c.Points))
	for i, p := range c.Points {
		times[i] = Instant(epoch, p.Minutes)
	}
	return times
}

// Estimator evaluates the edge-corrected Gaussian kernel rate.
type Estimator struct {
	bandwidth  float64
	resolution int
	kernel     distuv.Normal
}

// New creates an estimator with bandwidth h (minutes) and curve resolution.
func New(bandwidthMinutes float64, resolution int) (*Estimator, error) {
	if !(bandwidthMinutes > 0) || math.IsInf(bandwidthMinutes, 0) {
		return nil, fmt.Errorf("bandwidth must be positive and finite, got %v", bandwidthMinutes)
	}
	if resolution < 2 {
		return nil, fmt.Errorf("resolution must be >= 2, got %d", resolution)
	}
	return &Estimator{
		bandwidth:  bandwidthMinutes,
		resolution: resolution,
		kernel:     distuv.UnitNormal,
	}, nil
}

// Bandwidth returns h in minutes.
func (e *Estimator) Bandwidth() float64 {
	return e.bandwidth
}

// Resolution returns the number of curve points.
func (e *Estimator) Resolution() int {
	return e.resolution
}

// Rate evaluates λ(t) for the window [0, now].
func (e *Estimator) Rate(times []float64, now, t float64) (float64, error) {
	return e.WeightedRate(times, nil, now, t)
}

// WeightedRate evaluates λ(t) with one weight per arrival (nil weights count each
// arrival once). Weighting by group size turns a group rate into a visitor rate.
func (e *Estimator) WeightedRate(times, weights []float64, now, t float64) (float64, error) {
	if err := e.check(times, weights, now); err != nil {
		return 0, err
	}
	return e.rate(times, weights, now, t)
}

// Density returns the unnormalised kernel weight Σ φ((t − tᵢ)/h).
func (e *Estimator) Density(times []float64, t float64) float64 {
	return e.density(times, nil, t)
}

// Curve samples λ at Resolution() evenly spaced points of [0, now].
// Any failure yields an empty curve and ErrInsufficientData.
func (e *Estimator) Curve(times []float64, now float64) (Curve, error) {
	return e.WeightedCurve(times, nil, now)
}

// WeightedCurve is Curve with per-arrival weights.
func (e *Estimator) WeightedCurve(times, weights []float64, now float64) (Curve, error) {
	if err := e.check(times, weights, now); err != nil {
		return Curve{}, err
	}

	grid := floats.Span(make([]float64, e.resolution), 0, now)
	points := make([]Point, len(grid))
	for i, t := range grid {
		value, err := e.rate(times, weights, now, t)
		if err != nil {
			return Curve{}, err
		}
		points[i] = Point{Minutes: t, Value: value}
	}

	return Curve{Points: points}, nil
}

func (e *Estimator) check(times, weights []float64, now float64) error {
	if len(times) == 0 || !(now > 0) || math.IsInf(now, 0) {
		return ErrInsufficientData
	}
	if weights != nil && len(weights) != len(times) {
		return fmt.Errorf("weights length %d does not match times length %d", len(weights), len(times))
	}
	return nil
}

func (e *Estimator) density(times, weights []float64, t float64) float64 {
	h := e.bandwidth

	var weight float64
	for i, ti := range times {
		k := e.kernel.Prob((t - ti) / h)
		if weights != nil {
			k *= weights[i]
		}
		weight += k
	}
	return weight
}

func (e *Estimator) rate(times, weights []float64, now, t float64) (float64, error) {
	h := e.bandwidth

	correction := e.kernel.CDF((now-t)/h) - e.kernel.CDF(-t/h)
	if !(correction > 0) {
		return 0, ErrInsufficientData
	}

	value := e.density(times, weights, t) / (h * correction)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInsufficientData
	}
	return value, nil
}

// Minutes returns the elapsed minutes from epoch to t (negative before the epoch).
func Minutes(epoch, t time.Time) float64 {
	return t.Sub(epoch).Minutes()
}

// Instant returns epoch shifted by the given number of minutes.
func Instant(epoch time.Time, minutes float64) time.Time {
	return epoch.Add(time.Duration(minutes * float64(time.Minute)))
}
