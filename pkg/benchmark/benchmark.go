// Package benchmark computes and accumulates the per-debate benchmark
// record from spec.md §3, including the inter-token-latency percentiles
// the round executor samples per agent.
package benchmark

import "sort"

// AgentStat is one agent's terminal benchmark entry for one round.
type AgentStat struct {
	Round            int      `json:"round"`
	AgentID          string   `json:"agentId"`
	Model            string   `json:"model"`
	TimeToFirstToken float64  `json:"timeToFirstToken"`
	MeanITL          float64  `json:"meanInterTokenLatency"`
	P50ITL           float64  `json:"p50InterTokenLatency"`
	P95ITL           float64  `json:"p95InterTokenLatency"`
	ChunkCount       int      `json:"chunkCount"`
	PromptTokens     int      `json:"promptTokens"`
	CompletionTokens int      `json:"completionTokens"`
	TotalTokens      int      `json:"totalTokens"`
	CompletionTime   *float64 `json:"completionTime,omitempty"`
	Throughput       float64  `json:"throughput"`
}

// RoundStat is one round's wall-clock summary.
type RoundStat struct {
	Round        int      `json:"round"`
	WallDuration float64  `json:"wallDuration"`
	Participants []string `json:"participants"`
}

// Record is the accumulated per-debate benchmark record, spec.md §3.
type Record struct {
	TotalWallTime        float64     `json:"totalWallTime"`
	TimeToFirstTokenGlobal float64   `json:"timeToFirstTokenGlobal"`
	Rounds               []RoundStat `json:"rounds"`
	Agents               []AgentStat `json:"agents"`
}

// Percentiles computes mean/p50/p95 of samples using sorted-index
// nearest-rank (no interpolation), per spec.md's benchmark definition.
// Returns zero values for an empty sample set.
func Percentiles(samples []float64) (mean, p50, p95 float64) {
	n := len(samples)
	if n == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	mean = sum / float64(n)

	p50 = sorted[nearestRankIndex(n, 0.50)]
	p95 = sorted[nearestRankIndex(n, 0.95)]
	return
}

func nearestRankIndex(n int, fraction float64) int {
	idx := int(fraction * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}
