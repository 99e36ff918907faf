package realtime

import (
	"context"
	"math/rand/v2"
	"sync"
)

// SystemLoad holds four utilisation gauges, each in [0, 100].
type SystemLoad struct {
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Disk    float64 `json:"disk"`
	Network float64 `json:"network"`
}

// LoadSource supplies the system load shown alongside realtime metrics.
type LoadSource interface {
	Load(ctx context.Context) (SystemLoad, error)
}

// Simulated gauge baselines.
const (
	BaselineCPU     = 45
	BaselineMemory  = 65
	BaselineDisk    = 30
	BaselineNetwork = 25

	DefaultJitter = 10
)

// SimulatedLoad perturbs fixed baselines by a uniform jitter in [-Jitter, +Jitter].
type SimulatedLoad struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter float64
}

// NewSimulatedLoad returns a simulated source. A seed of 0 picks a random one.
func NewSimulatedLoad(jitter float64, seed uint64) *SimulatedLoad {
	if jitter < 0 {
		jitter = 0
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SimulatedLoad{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		jitter: jitter,
	}
}

func (s *SimulatedLoad) Load(_ context.Context) (SystemLoad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SystemLoad{
		CPU:     s.perturb(BaselineCPU),
		Memory:  s.perturb(BaselineMemory),
		Disk:    s.perturb(BaselineDisk),
		Network: s.perturb(BaselineNetwork),
	}, nil
}

func (s *SimulatedLoad) perturb(baseline float64) float64 {
	v := baseline + (s.rng.Float64()*2-1)*s.jitter
	return clampPercent(v)
}

func clampPercent(v float64) float64 {
	return max(0, min(v, 100))
}
