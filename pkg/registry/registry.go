// Package registry implements C3: resolving (industry, requested agent ids)
// into a concrete ordered agent.Descriptor set, per spec.md §4.3.
//
// Agent descriptors and the industry overlay table are treated as
// configuration (spec.md §1 explicitly excludes "static industry/agent
// registry data" from the core), loaded from a YAML document the way the
// teacher's pkg/config/config.go loads its agent configuration, rather than
// hard-coded the way the Python original's industry.py bakes INDUSTRY_AGENTS
// into source.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mindglass/debate-engine/pkg/agent"
)

// baseOrder is the fixed base agent order spec.md §4.3 step 1 starts from.
var baseOrder = []string{"analyst", "optimist", "pessimist", "critic", "strategist", "finance", "risk", "synthesizer"}

// AgentConfig is the YAML shape of one agent descriptor entry.
type AgentConfig struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Color        string   `yaml:"color"`
	Tags         []string `yaml:"tags"`
	Prompt       string   `yaml:"prompt"`
	DefaultModel string   `yaml:"defaultModel"`
}

// IndustryConfig is the YAML shape of one industry overlay entry: the pair
// of agent ids that positionally replace "finance" and "risk".
type IndustryConfig struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	FirstAgent  string `yaml:"firstAgent"`
	SecondAgent string `yaml:"secondAgent"`
}

// Document is the top-level YAML document shape.
type Document struct {
	Agents     []AgentConfig    `yaml:"agents"`
	Industries []IndustryConfig `yaml:"industries"`
}

// Registry holds the resolved agent descriptor table and industry overlays.
type Registry struct {
	agents     map[string]agent.Descriptor
	industries map[string]IndustryConfig
}

// Load reads and validates a registry document from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	return Parse(data)
}

// Parse validates and builds a Registry from raw YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry yaml: %w", err)
	}

	r := &Registry{
		agents:     make(map[string]agent.Descriptor, len(doc.Agents)),
		industries: make(map[string]IndustryConfig, len(doc.Industries)),
	}
	for _, a := range doc.Agents {
		if a.ID == "" {
			return nil, fmt.Errorf("registry: agent entry missing id")
		}
		r.agents[a.ID] = agent.Descriptor{
			ID:           a.ID,
			Name:         a.Name,
			Color:        a.Color,
			Tags:         a.Tags,
			Prompt:       a.Prompt,
			DefaultModel: a.DefaultModel,
		}
	}
	if _, ok := r.agents["synthesizer"]; !ok {
		return nil, fmt.Errorf("registry: synthesizer agent is required")
	}
	for _, ind := range doc.Industries {
		if ind.Key == "" {
			return nil, fmt.Errorf("registry: industry entry missing key")
		}
		if _, ok := r.agents[ind.FirstAgent]; !ok {
			return nil, fmt.Errorf("registry: industry %q references unknown agent %q", ind.Key, ind.FirstAgent)
		}
		if _, ok := r.agents[ind.SecondAgent]; !ok {
			return nil, fmt.Errorf("registry: industry %q references unknown agent %q", ind.Key, ind.SecondAgent)
		}
		r.industries[ind.Key] = ind
	}

	return r, nil
}

// Resolve implements spec.md §4.3's resolution algorithm:
//  1. start from the base order;
//  2. substitute industry specialists for "finance"/"risk", positionally;
//  3. intersect with requested (preserving base order), always forcing
//     "synthesizer" into the result.
func (r *Registry) Resolve(industry string, requested []string) ([]agent.Descriptor, error) {
	// slotID is the base-order name a selection request is matched against
	// ("finance"/"risk" even once substituted), resolvedID is the concrete
	// descriptor id actually instantiated.
	slotIDs := make([]string, len(baseOrder))
	resolvedIDs := make([]string, len(baseOrder))
	copy(slotIDs, baseOrder)
	copy(resolvedIDs, baseOrder)

	if ind, ok := r.industries[industry]; ok {
		for i, id := range slotIDs {
			switch id {
			case "finance":
				resolvedIDs[i] = ind.FirstAgent
			case "risk":
				resolvedIDs[i] = ind.SecondAgent
			}
		}
	}

	want := map[string]bool{}
	anyRequested := len(requested) > 0
	for _, id := range requested {
		want[id] = true
	}

	resolved := make([]agent.Descriptor, 0, len(slotIDs))
	for i, slotID := range slotIDs {
		resolvedID := resolvedIDs[i]
		desc, ok := r.agents[resolvedID]
		if !ok {
			continue // unknown agent id silently dropped, e.g. an unconfigured industry specialist slot
		}
		if anyRequested && !want[slotID] && slotID != "synthesizer" {
			continue
		}
		resolved = append(resolved, desc)
	}

	hasSynth := false
	for _, d := range resolved {
		if d.ID == "synthesizer" {
			hasSynth = true
			break
		}
	}
	if !hasSynth {
		if synth, ok := r.agents["synthesizer"]; ok {
			resolved = append(resolved, synth)
		}
	}

	return resolved, nil
}

// Descriptor looks up a single agent descriptor by id.
func (r *Registry) Descriptor(id string) (agent.Descriptor, bool) {
	d, ok := r.agents[id]
	return d, ok
}

// IndustryLabel returns the display label configured for an industry key,
// or "" if the industry is unknown (spec.md §6: "unknown industries are
// treated as absent").
func (r *Registry) IndustryLabel(industry string) string {
	if ind, ok := r.industries[industry]; ok {
		return ind.Label
	}
	return ""
}

// IndustrySlots returns the concrete agent ids that fill the "finance" and
// "risk" expert-round slots for industry, falling back to the generic
// "finance"/"risk" ids when industry is unknown or unconfigured.
func (r *Registry) IndustrySlots(industry string) (financeID, riskID string) {
	if ind, ok := r.industries[industry]; ok {
		return ind.FirstAgent, ind.SecondAgent
	}
	return "finance", "risk"
}
