package rules

import (
	"github.com/rotisserie/eris"

	"housingreview/internal/domain"
)

// Registry keeps rules in registration order and indexes them by the
// document types they apply to.
type Registry struct {
	rules  []Rule
	byID   map[string]Rule
	byType map[domain.DocumentType][]Rule
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]Rule),
		byType: make(map[domain.DocumentType][]Rule),
	}
}

// Register adds a rule. IDs must be unique and contexts must be classified
// document types.
func (r *Registry) Register(rule Rule) error {
	if rule.ID() == "" {
		return eris.New("rules: rule without id")
	}
	if _, ok := r.byID[rule.ID()]; ok {
		return eris.Errorf("rules: duplicate rule id %s", rule.ID())
	}
	for _, t := range rule.Contexts() {
		if !t.Valid() {
			return eris.Errorf("rules: rule %s declares invalid context %q", rule.ID(), t)
		}
	}
	r.rules = append(r.rules, rule)
	r.byID[rule.ID()] = rule
	for _, t := range rule.Contexts() {
		r.byType[t] = append(r.byType[t], rule)
	}
	return nil
}

// MustRegister registers rules and panics on the first error. Intended for
// the built-in rule set at startup.
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the rule with the given id, or nil.
func (r *Registry) Get(id string) Rule {
	return r.byID[id]
}

// All returns every rule in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// ForType returns the rules declared for t, in registration order. Rules
// without contexts are not included.
func (r *Registry) ForType(t domain.DocumentType) []Rule {
	out := make([]Rule, len(r.byType[t]))
	copy(out, r.byType[t])
	return out
}

// applicable returns the ids of rules that apply to a record containing the
// given document types.
func (r *Registry) applicable(record *domain.DocumentRecord) map[string]bool {
	out := make(map[string]bool, len(r.rules))
	for _, rule := range r.rules {
		if len(rule.Contexts()) == 0 {
			out[rule.ID()] = true
		}
	}
	for _, t := range record.PresentTypes() {
		for _, rule := range r.byType[t] {
			out[rule.ID()] = true
		}
	}
	return out
}
