package interpreter

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rodger/internal/core"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Bucket maps a keyword set to the transaction type it implies.
type Bucket struct {
	Type     core.TransactionType `yaml:"type"`
	Keywords []string             `yaml:"keywords"`
}

// ContextRule infers a type from a standalone relation particle.
type ContextRule struct {
	Type      core.TransactionType `yaml:"type"`
	Particles []string             `yaml:"particles"`
}

// Rules holds every word list the parser consults. Order inside Buckets and
// Context is significant.
type Rules struct {
	Report            []string             `yaml:"report"`
	Buckets           []Bucket             `yaml:"buckets"`
	Context           []ContextRule        `yaml:"context"`
	DefaultType       core.TransactionType `yaml:"default_type"`
	CurrencyUnits     []string             `yaml:"currency_units"`
	Honorifics        []string             `yaml:"honorifics"`
	RelationParticles []string             `yaml:"relation_particles"`
	CommandKeywords   []string             `yaml:"command_keywords"`
	Stopwords         []string             `yaml:"stopwords"`
}

// DefaultRules returns the rule tables compiled into the binary.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("interpreter: embedded rules invalid: %v", err))
	}
	return r
}

// LoadRules reads rule tables from a YAML file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates YAML rule tables.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	r.normalize()
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate checks that every table needed by the parser is present.
func (r Rules) Validate() error {
	var errs []error
	if len(r.Buckets) == 0 {
		errs = append(errs, errors.New("at least one bucket is required"))
	}
	for i, b := range r.Buckets {
		if !b.Type.IsValid() {
			errs = append(errs, fmt.Errorf("bucket %d: unknown type %q", i, b.Type))
		}
		if len(b.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("bucket %d (%s): no keywords", i, b.Type))
		}
	}
	for i, c := range r.Context {
		if !c.Type.IsValid() {
			errs = append(errs, fmt.Errorf("context rule %d: unknown type %q", i, c.Type))
		}
	}
	if !r.DefaultType.IsValid() {
		errs = append(errs, fmt.Errorf("unknown default_type %q", r.DefaultType))
	}
	if len(r.RelationParticles) == 0 {
		errs = append(errs, errors.New("relation_particles cannot be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid rules: %w", errors.Join(errs...))
	}
	return nil
}

// normalize lower-cases and trims every word so matching can work on the
// lower-cased sentence.
func (r *Rules) normalize() {
	r.Report = lowerAll(r.Report)
	for i := range r.Buckets {
		r.Buckets[i].Keywords = lowerAll(r.Buckets[i].Keywords)
	}
	for i := range r.Context {
		r.Context[i].Particles = lowerAll(r.Context[i].Particles)
	}
	r.CurrencyUnits = lowerAll(r.CurrencyUnits)
	r.Honorifics = lowerAll(r.Honorifics)
	r.RelationParticles = lowerAll(r.RelationParticles)
	r.CommandKeywords = lowerAll(r.CommandKeywords)
	r.Stopwords = lowerAll(r.Stopwords)
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
