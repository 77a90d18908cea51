package dispersion

import (
	"fmt"
	"math"
)

// qualityLog accumulates data-quality flags as formulas clamp degenerate
// intermediate values. Degeneracy is recorded and recovered, never
// propagated as NaN/Infinity or a panic.
type qualityLog struct {
	flags []string
}

func (q *qualityLog) flag(format string, args ...any) {
	q.flags = append(q.flags, fmt.Sprintf(format, args...))
}

func (q *qualityLog) merge(flags []string) {
	q.flags = append(q.flags, flags...)
}

// sanitize clamps v to a finite, non-negative value, flagging the quantity
// name when a clamp occurs. Applied at every formula boundary.
func (q *qualityLog) sanitize(name string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		q.flag("%s was not finite, coerced to zero", name)
		return 0
	}
	if v < 0 {
		q.flag("%s was negative (%g), coerced to zero", name, v)
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
