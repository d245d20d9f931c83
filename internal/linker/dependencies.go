package linker

import (
	"strings"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// crossBlockPrefix marks a dependency bound from another rule block.
const crossBlockPrefix = "rout_"

// Resolver maps dependency tokens to catalog keys.
type Resolver struct {
	keys   map[string]struct{}
	byName map[string][]string // variable name -> rule blocks, catalog order
}

// NewResolver indexes vars for dependency resolution.
func NewResolver(vars []catalog.Variable) *Resolver {
	r := &Resolver{
		keys:   make(map[string]struct{}, len(vars)),
		byName: make(map[string][]string),
	}
	for i := range vars {
		v := &vars[i]
		key := v.Key()
		if _, ok := r.keys[key]; ok {
			continue
		}
		r.keys[key] = struct{}{}
		r.byName[v.Variable] = append(r.byName[v.Variable], v.Ruleblock)
	}
	return r
}

// Resolve maps a depends_on entry of a statement in fromRuleblock to the
// "ruleblock.variable" key it names. A cross-block binding rout_<block>.<name>
// resolves to <block>.<name>. A bare name resolves to the same rule block
// when defined there, otherwise to the first rule block defining it. ok is
// false when the target is not in the catalog.
func (r *Resolver) Resolve(dep, fromRuleblock string) (string, bool) {
	if strings.HasPrefix(dep, crossBlockPrefix) {
		parts := strings.Split(strings.TrimPrefix(dep, crossBlockPrefix), ".")
		if len(parts) != 2 {
			return "", false
		}
		key := parts[0] + "." + parts[1]
		_, ok := r.keys[key]
		return key, ok
	}

	blocks := r.byName[dep]
	if len(blocks) == 0 {
		return "", false
	}
	for _, rb := range blocks {
		if rb == fromRuleblock {
			return rb + "." + dep, true
		}
	}
	return blocks[0] + "." + dep, true
}

// ResolveDependency resolves a single dependency against vars. Callers
// resolving many dependencies should reuse a Resolver.
func ResolveDependency(dep, fromRuleblock string, vars []catalog.Variable) (string, bool) {
	return NewResolver(vars).Resolve(dep, fromRuleblock)
}
