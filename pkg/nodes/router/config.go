// Package router keeps a router node's output-port count, per-strategy rule
// lists and connections mutually consistent.
package router

import (
	"errors"
	"fmt"
)

// MinOutputPorts is the smallest number of output ports a router may have.
const MinOutputPorts = 2

// ErrMinOutputPorts is returned when a port removal would leave the router
// with fewer than MinOutputPorts output ports. The operation is rejected and
// the config left unchanged; callers must surface this to the user.
var ErrMinOutputPorts = errors.New("router requires at least 2 output ports")

// ErrPortOutOfRange is returned when a port index does not exist.
var ErrPortOutOfRange = errors.New("router output port index out of range")

// Strategy selects how a router picks an output port for a message.
type Strategy string

const (
	StrategyKeyword     Strategy = "keyword"
	StrategyRandom      Strategy = "random"
	StrategyContentType Strategy = "content-type"
	StrategyAI          Strategy = "ai"
)

// PatternKind is the match mode of a keyword rule.
type PatternKind string

const (
	PatternContains   PatternKind = "contains"
	PatternStartsWith PatternKind = "startsWith"
	PatternEndsWith   PatternKind = "endsWith"
	PatternExactMatch PatternKind = "exactMatch"
	PatternRegex      PatternKind = "regex"
)

// patternKinds is the cycle used when generating placeholder rules.
var patternKinds = []PatternKind{
	PatternContains,
	PatternStartsWith,
	PatternEndsWith,
	PatternExactMatch,
	PatternRegex,
}

// Rule is one keyword routing rule. Rule at list position i always targets
// port i; Reconcile enforces this.
type Rule struct {
	Pattern string      `json:"pattern"`
	Kind    PatternKind `json:"patternKind"`
	Port    int         `json:"port"`
}

// ContentTypeRule maps a content type to an output port. Unlike keyword
// rules, content-type ports need not be contiguous or unique.
type ContentTypeRule struct {
	ContentType string `json:"contentType"`
	Port        int    `json:"port"`
}

// Config is the decoded router node configuration.
type Config struct {
	Strategy     Strategy
	OutputPorts  int
	Rules        []Rule            // keyword strategy
	Weights      []float64         // random strategy, indexed by port
	ContentTypes []ContentTypeRule // content-type strategy
	Prompt       string            // ai strategy
}

// DefaultConfig returns the configuration a freshly placed router gets: two
// output ports, keyword strategy, a catch-all rule on port 0 and an example
// rule on port 1.
func DefaultConfig() Config {
	cfg := Config{
		Strategy:    StrategyKeyword,
		OutputPorts: MinOutputPorts,
	}
	cfg.Rules = []Rule{placeholderRule(0), placeholderRule(1)}

	return cfg
}

// Config map keys, matching the editor wire format.
const (
	KeyStrategy     = "routingStrategy"
	KeyOutputPorts  = "outputPorts"
	KeyRules        = "keywordPatterns"
	KeyWeights      = "portWeights"
	KeyContentTypes = "contentTypeMappings"
	KeyPrompt       = "routingPrompt"
)

// ParseConfig decodes a router configuration from a node's config map. The
// map may come straight from JSON, so numbers are accepted as float64 as
// well as int.
func ParseConfig(config map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if config == nil {
		return cfg, nil
	}

	if strategy, ok := config[KeyStrategy].(string); ok && strategy != "" {
		switch Strategy(strategy) {
		case StrategyKeyword, StrategyRandom, StrategyContentType, StrategyAI:
			cfg.Strategy = Strategy(strategy)
		default:
			return Config{}, fmt.Errorf("unknown routing strategy %q", strategy)
		}
	}

	if ports, ok := asInt(config[KeyOutputPorts]); ok {
		if ports < MinOutputPorts {
			return Config{}, ErrMinOutputPorts
		}

		cfg.OutputPorts = ports
	}

	if rules, ok := config[KeyRules].([]any); ok {
		cfg.Rules = make([]Rule, 0, len(rules))

		for i, ruleAny := range rules {
			ruleMap, ok := ruleAny.(map[string]any)
			if !ok {
				return Config{}, fmt.Errorf("keyword pattern %d must be an object", i)
			}

			rule := Rule{Port: i}
			rule.Pattern, _ = ruleMap["pattern"].(string)

			if kind, ok := ruleMap["patternKind"].(string); ok && kind != "" {
				rule.Kind = PatternKind(kind)
			} else {
				rule.Kind = PatternContains
			}

			if port, ok := asInt(ruleMap["port"]); ok {
				rule.Port = port
			}

			cfg.Rules = append(cfg.Rules, rule)
		}
	}

	if weights, ok := config[KeyWeights].([]any); ok {
		cfg.Weights = make([]float64, 0, len(weights))

		for _, weightAny := range weights {
			weight, _ := asFloat(weightAny)
			if weight < 0 {
				weight = 0
			}

			cfg.Weights = append(cfg.Weights, weight)
		}
	}

	if mappings, ok := config[KeyContentTypes].([]any); ok {
		cfg.ContentTypes = make([]ContentTypeRule, 0, len(mappings))

		for i, mappingAny := range mappings {
			mappingMap, ok := mappingAny.(map[string]any)
			if !ok {
				return Config{}, fmt.Errorf("content-type mapping %d must be an object", i)
			}

			mapping := ContentTypeRule{}
			mapping.ContentType, _ = mappingMap["contentType"].(string)

			if port, ok := asInt(mappingMap["port"]); ok {
				mapping.Port = port
			}

			cfg.ContentTypes = append(cfg.ContentTypes, mapping)
		}
	}

	if prompt, ok := config[KeyPrompt].(string); ok {
		cfg.Prompt = prompt
	}

	cfg.Reconcile()

	return cfg, nil
}

// ToMap encodes the configuration back into the node's config map form.
func (c Config) ToMap() map[string]any {
	out := map[string]any{
		KeyStrategy:    string(c.Strategy),
		KeyOutputPorts: c.OutputPorts,
	}

	switch c.Strategy {
	case StrategyKeyword:
		rules := make([]any, 0, len(c.Rules))
		for _, rule := range c.Rules {
			rules = append(rules, map[string]any{
				"pattern":     rule.Pattern,
				"patternKind": string(rule.Kind),
				"port":        rule.Port,
			})
		}

		out[KeyRules] = rules
	case StrategyRandom:
		weights := make([]any, 0, len(c.Weights))
		for _, weight := range c.Weights {
			weights = append(weights, weight)
		}

		out[KeyWeights] = weights
	case StrategyContentType:
		mappings := make([]any, 0, len(c.ContentTypes))
		for _, mapping := range c.ContentTypes {
			mappings = append(mappings, map[string]any{
				"contentType": mapping.ContentType,
				"port":        mapping.Port,
			})
		}

		out[KeyContentTypes] = mappings
	case StrategyAI:
		out[KeyPrompt] = c.Prompt
	}

	return out
}

// AddOutputPort grows the router by one output port, extending the
// strategy-specific rule list for the new highest index.
func (c *Config) AddOutputPort() {
	newIndex := c.OutputPorts
	c.OutputPorts++

	switch c.Strategy {
	case StrategyKeyword:
		c.Rules = append(c.Rules, placeholderRule(newIndex))
	case StrategyRandom:
		c.Weights = append(c.Weights, 1.0)
	case StrategyContentType, StrategyAI:
		// No per-port structure to extend.
	}
}

// RemoveOutputPort removes the output port at index and renumbers everything
// above it down by one. Removing below the minimum is rejected with
// ErrMinOutputPorts and the config is left unchanged.
func (c *Config) RemoveOutputPort(index int) error {
	if c.OutputPorts <= MinOutputPorts {
		return ErrMinOutputPorts
	}

	if index < 0 || index >= c.OutputPorts {
		return fmt.Errorf("%w: %d", ErrPortOutOfRange, index)
	}

	c.OutputPorts--

	switch c.Strategy {
	case StrategyKeyword:
		if index < len(c.Rules) {
			c.Rules = append(c.Rules[:index], c.Rules[index+1:]...)
		}
	case StrategyRandom:
		if index < len(c.Weights) {
			c.Weights = append(c.Weights[:index], c.Weights[index+1:]...)
		}
	case StrategyContentType:
		kept := c.ContentTypes[:0]

		for _, mapping := range c.ContentTypes {
			if mapping.Port == index {
				continue
			}

			if mapping.Port > index {
				mapping.Port--
			}

			kept = append(kept, mapping)
		}

		c.ContentTypes = kept
	case StrategyAI:
		// Nothing to renumber.
	}

	c.Reconcile()

	return nil
}

// Reconcile restores the port-count invariants after any bulk edit: the
// keyword rule list is padded or truncated to OutputPorts with ports
// reassigned contiguously by list position, and random weights are padded or
// truncated the same way.
func (c *Config) Reconcile() {
	if c.OutputPorts < MinOutputPorts {
		c.OutputPorts = MinOutputPorts
	}

	if c.Strategy == StrategyKeyword {
		for len(c.Rules) < c.OutputPorts {
			c.Rules = append(c.Rules, placeholderRule(len(c.Rules)))
		}

		c.Rules = c.Rules[:c.OutputPorts]

		// Row order is the port assignment.
		for i := range c.Rules {
			c.Rules[i].Port = i
		}
	}

	if c.Strategy == StrategyRandom {
		for len(c.Weights) < c.OutputPorts {
			c.Weights = append(c.Weights, 1.0)
		}

		c.Weights = c.Weights[:c.OutputPorts]
	}
}

// placeholderRule generates the auto-filled rule for a new port. Port 0 is
// the catch-all; later ports cycle through the pattern kinds.
func placeholderRule(index int) Rule {
	if index == 0 {
		return Rule{Pattern: "*", Kind: PatternContains, Port: 0}
	}

	return Rule{
		Pattern: fmt.Sprintf("pattern-%d", index+1),
		Kind:    patternKinds[index%len(patternKinds)],
		Port:    index,
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
