//
//
package stats

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mode tags the snapshot variant.
type Mode string

const (
	ModeTally Mode = "tally"
	ModeRate  Mode = "rate"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTally, ModeRate:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown stats mode %q", s)
}

// Visitor is one raw log row in a tally snapshot.
type Visitor struct {
	Timestamp string `json:"timestamp"`
	GroupSize int    `json:"group_size"`
}

// Snapshot is the externally visible statistics unit. Only the fields of its
// Mode are serialised.
type Snapshot struct {
	Mode          Mode
	TotalVisitors int

	// tally
	RecentVisitors []Visitor

	// rate
	DispTimes     []time.Time
	DispIntensity []float64
}

// TallyPayload is the wire shape of a tally snapshot.
type TallyPayload struct {
	TotalVisitors  int       `json:"total_visitors"`
	RecentVisitors []Visitor `json:"recent_visitors"`
}

// RatePayload is the wire shape of a rate snapshot.
type RatePayload struct {
	DispTimes     []string  `json:"disp_times"`
	DispIntensity []float64 `json:"disp_intensity"`
	TotalVisitors int       `json:"total_visitors"`
}

// Empty returns the zeroed snapshot of mode.
func Empty(mode Mode) Snapshot {
	return Snapshot{Mode: mode}
}

// MarshalJSON renders the mode-specific shape. Empty lists encode as [].
func (s Snapshot) MarshalJSON() ([]byte, error) {
	switch s.Mode {
	case ModeTally:
		recent := s.RecentVisitors
		if recent == nil {
			recent = []Visitor{}
		}
		return json.Marshal(TallyPayload{TotalVisitors: s.TotalVisitors, RecentVisitors: recent})
	case ModeRate:
		times := make([]string, len(s.DispTimes))
		for i, t := range s.DispTimes {
			times[i] = t.Format(time.RFC3339Nano)
		}
		values := s.DispIntensity
		if values == nil {
			values = []float64{}
		}
		return json.Marshal(RatePayload{DispTimes: times, DispIntensity: values, TotalVisitors: s.TotalVisitors})
	default:
		return nil, fmt.Errorf("cannot marshal snapshot with mode %q", s.Mode)
	}
}
