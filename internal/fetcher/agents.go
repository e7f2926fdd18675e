package fetcher

import (
	"math/rand/v2"
	"sync"
)

// AgentPicker chooses the User-Agent header for each request
type AgentPicker interface {
	Pick() string
}

// FixedAgent always sends the same user agent
type FixedAgent string

// Pick returns the agent itself
func (a FixedAgent) Pick() string {
	return string(a)
}

// RandomAgents picks uniformly from a list using its own random source
type RandomAgents struct {
	mu     sync.Mutex
	agents []string
	rnd    *rand.Rand
}

// NewRandomAgents creates a picker over agents. The seed makes the sequence
// reproducible in tests.
func NewRandomAgents(agents []string, seed uint64) *RandomAgents {
	return &RandomAgents{
		agents: append([]string(nil), agents...),
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Pick returns one of the agents, or "" if the list is empty
func (r *RandomAgents) Pick() string {
	if len(r.agents) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[r.rnd.IntN(len(r.agents))]
}
