package model

import "time"

type LatencyClass string

const (
	LatencyFast     LatencyClass = "fast"
	LatencyStandard LatencyClass = "standard"
	LatencySlow     LatencyClass = "slow"
)

// ModelConfig is one entry of the model catalog: the mapping from a public
// model key ("gpt-4o") to its internal id, provider, provider-native name and
// capability flags.
type ModelConfig struct {
	ID           int64
	Key          string
	Provider     string
	ProviderName string
	Enabled      bool
	ChatEnabled  bool
	Latency      LatencyClass
	UpdatedAt    time.Time
}
