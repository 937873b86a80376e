// Package engine runs the risk pool over a range of population sizes to show
// the Actual/Expected ratio settling towards 1.0.
package engine

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"insurance-mcp/internal/simulation"

	json "github.com/goccy/go-json"
)

type SweepConfig struct {
	AccidentProbability float64
	From                int
	To                  int
	Factor              float64 // multiplicative step between population sizes
	Seed                int64
}

// Point is one line of the sweep output.
type Point struct {
	N               int     `json:"n"`
	PoolPerformance float64 `json:"pool_performance"`
	NumWithLoss     int     `json:"num_with_loss"`
}

// Validate rejects configurations that would not terminate or cannot simulate.
func (c SweepConfig) Validate() error {
	if c.From <= 0 || c.To < c.From {
		return fmt.Errorf("invalid population range [%d, %d]", c.From, c.To)
	}
	if c.To > simulation.MaxPopulation {
		return fmt.Errorf("population range ends at %d, above the maximum of %d", c.To, simulation.MaxPopulation)
	}
	if math.IsNaN(c.Factor) || math.IsInf(c.Factor, 0) || c.Factor <= 1 {
		return fmt.Errorf("factor must be greater than 1, got %v", c.Factor)
	}
	return nil
}

// Sizes lists the population sizes visited, strictly increasing.
func (c SweepConfig) Sizes() []int {
	var sizes []int
	for n := c.From; n <= c.To; {
		sizes = append(sizes, n)
		if n == c.To {
			break
		}
		next := int(float64(n) * c.Factor)
		if next <= n {
			next = n + 1
		}
		n = next
	}
	return sizes
}

// Run simulates every population size with the same seed.
func Run(cfg SweepConfig) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var points []Point
	for _, n := range cfg.Sizes() {
		res, err := simulation.SimulateRiskPool(cfg.AccidentProbability, n, cfg.Seed)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{N: n, PoolPerformance: res.PoolPerformance, NumWithLoss: res.NumWithLoss})
	}
	return points, nil
}

// Save writes the points as JSON lines.
func Save(w io.Writer, points []Point) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, p := range points {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return bw.Flush()
}
