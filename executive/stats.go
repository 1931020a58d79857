package executive

import (
	"github.com/montanaflynn/stats"
)

// collisionStats accumulates the per-cycle instantaneous collision penalty
// (step 9 of the per-cycle protocol) and summarises it for the task-level
// stats publication on exit.
type collisionStats struct {
	samples []float64
}

func (c *collisionStats) add(penalty float64) {
	c.samples = append(c.samples, penalty)
}

// cumulative returns the running sum of every recorded penalty.
func (c *collisionStats) cumulative() float64 {
	sum, _ := stats.Sum(c.samples)
	return sum
}

// meanAndStdDev summarises the recorded penalties; both are 0 if no samples
// were recorded.
func (c *collisionStats) meanAndStdDev() (mean, stdDev float64) {
	if len(c.samples) == 0 {
		return 0, 0
	}
	mean, _ = stats.Mean(c.samples)
	stdDev, _ = stats.StandardDeviation(c.samples)
	return mean, stdDev
}
