// Package score implements the weighted score combinator used by every
// scoring analyzer in the audit pipeline.
package score

import (
	"fmt"
	"math"
)

// weightEpsilon is the tolerance when checking that weights sum to 1.
const weightEpsilon = 0.01

// ConfigurationError reports invalid combinator input: negative weights or a
// weight set that sums to zero. It is fatal to the calling operation and is
// never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "score configuration: " + e.Reason
}

// Combine folds named sub-metric values into one bounded 0-100 score.
//
// Metric values may be on a [0,1] or [0,100] scale; values above 1 are
// treated as percentages. Weights must be non-negative. If the weights do
// not sum to 1 within a small epsilon they are renormalized by dividing each
// by the total, so an incomplete weight set cannot silently drift the score.
// A weight total of zero is a ConfigurationError — division by zero must
// never silently yield NaN.
func Combine(metrics map[string]float64, weights map[string]float64) (int, error) {
	if len(metrics) == 0 {
		return 0, &ConfigurationError{Reason: "no metrics supplied"}
	}

	total := 0.0
	for name, w := range weights {
		if w < 0 {
			return 0, &ConfigurationError{Reason: fmt.Sprintf("negative weight %.3f for %q", w, name)}
		}
		total += w
	}
	if total == 0 {
		return 0, &ConfigurationError{Reason: "weights sum to zero"}
	}

	norm := 1.0
	if math.Abs(total-1) > weightEpsilon {
		norm = total
	}

	sum := 0.0
	for name, value := range metrics {
		w, ok := weights[name]
		if !ok {
			continue
		}
		v := value
		if v > 1 {
			v /= 100
		}
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		sum += (w / norm) * v
	}

	combined := int(math.Round(100 * sum))
	if combined < 0 {
		combined = 0
	}
	if combined > 100 {
		combined = 100
	}
	return combined, nil
}
