package engine

// Population holds per-metric-key extrema observed across the whole
// batch. It is the explicit hand-off between the role-evaluation phase
// and the scoring phase: no player can be scored until every player's
// raw metrics have been collected, because scaling is population-relative.
type Population struct {
	min map[string]float64
	max map[string]float64
}

// CollectPopulation scans every player's raw role metrics once and
// records the observed minimum and maximum per metric key.
func CollectPopulation(all []map[string]float64) *Population {
	p := &Population{
		min: make(map[string]float64),
		max: make(map[string]float64),
	}
	for _, metrics := range all {
		for key, v := range metrics {
			lo, seen := p.min[key]
			if !seen || v < lo {
				p.min[key] = v
			}
			if hi, seen := p.max[key]; !seen || v > hi {
				p.max[key] = v
			}
		}
	}
	return p
}

// Scale min-max normalizes a raw value to [0,1] against the batch
// extrema for its key. A key with zero variance, or one never observed,
// scales to the neutral midpoint 0.5 rather than dividing by zero.
func (p *Population) Scale(key string, v float64) float64 {
	lo, okLo := p.min[key]
	hi, okHi := p.max[key]
	if !okLo || !okHi || hi == lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}
