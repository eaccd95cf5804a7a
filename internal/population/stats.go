package population

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultMinValue is the smallest value statistics include. Lower values
// are mostly noise on log-scaled instruments.
const DefaultMinValue = 10

// Summary is count, median and mean of one channel.
type Summary struct {
	Channel string  `yaml:"channel" json:"channel"`
	Events  int     `yaml:"events" json:"events"`
	Valid   int     `yaml:"valid" json:"valid"`
	Median  float64 `yaml:"median" json:"median"`
	Mean    float64 `yaml:"mean" json:"mean"`
}

// Summarize computes statistics over values >= minValue. Events counts
// every value; Median and Mean are zero when no value qualifies.
func Summarize(channel string, values []float64, minValue float64) Summary {
	s := Summary{Channel: channel, Events: len(values)}
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= minValue {
			valid = append(valid, v)
		}
	}
	s.Valid = len(valid)
	if len(valid) == 0 {
		return s
	}
	sort.Float64s(valid)
	s.Mean = stat.Mean(valid, nil)
	n := len(valid)
	if n%2 == 1 {
		s.Median = valid[n/2]
	} else {
		s.Median = (valid[n/2-1] + valid[n/2]) / 2
	}
	return s
}
