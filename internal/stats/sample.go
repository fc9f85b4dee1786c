//
//
package stats

import (
	"time"

	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/intensity"
)

// Sample is the estimator input derived from the log: elapsed minutes since the
// epoch and the parallel group sizes. Events before the epoch are dropped.
type Sample struct {
	Times []float64
	Sizes []int
}

// BuildSample converts events to elapsed minutes since epoch, dropping negatives.
func BuildSample(events []eventlog.Event, epoch time.Time) Sample {
	sample := Sample{
		Times: make([]float64, 0, len(events)),
		Sizes: make([]int, 0, len(events)),
	}
	for _, e := range events {
		minutes := intensity.Minutes(epoch, e.OccurredAt)
		if minutes < 0 {
			continue
		}
		sample.Times = append(sample.Times, minutes)
		sample.Sizes = append(sample.Sizes, e.GroupSize)
	}
	return sample
}

// Len returns the number of retained events.
func (s Sample) Len() int {
	return len(s.Times)
}

// Total is the exact sum of retained group sizes.
func (s Sample) Total() int {
	total := 0
	for _, size := range s.Sizes {
		total += size
	}
	return total
}

// Horizon is the latest retained elapsed time.
func (s Sample) Horizon() float64 {
	horizon := 0.0
	for _, t := range s.Times {
		if t > horizon {
			horizon = t
		}
	}
	return horizon
}

// Weights returns the group sizes as estimator weights.
func (s Sample) Weights() []float64 {
	weights := make([]float64, len(s.Sizes))
	for i, size := range s.Sizes {
		weights[i] = float64(size)
	}
	return weights
}
