package engine

import (
	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/content"
)

// VerificationPolicy decides what happens to content that conflicts with a patch.
type VerificationPolicy interface {
	// PreserveExisting reports whether conflicting content is kept as is.
	PreserveExisting(item content.Item) bool

	// IgnoreContentValidation reports whether conflicting content is overwritten.
	IgnoreContentValidation(item content.Item) bool
}

// Policy is a VerificationPolicy built from global modes and per item overrides.
type Policy struct {
	overrideAll         bool
	preserveAll         bool
	ignoreModuleChanges bool
	override            map[content.Location]bool
	preserve            map[content.Location]bool
}

var _ VerificationPolicy = &Policy{}

// PreserveExisting reports whether conflicting content is kept as is.
func (p *Policy) PreserveExisting(item content.Item) bool {
	loc := item.Location()
	if p.preserve[loc] {
		return true
	}
	return p.preserveAll && !p.override[loc]
}

// IgnoreContentValidation reports whether conflicting content is overwritten.
func (p *Policy) IgnoreContentValidation(item content.Item) bool {
	loc := item.Location()
	if p.override[loc] {
		return true
	}
	if p.preserve[loc] {
		return false
	}
	if p.ignoreModuleChanges && item.Type == content.TypeModule {
		return true
	}
	return p.overrideAll
}

// PolicyBuilder builds a Policy.
type PolicyBuilder struct {
	p Policy
}

// NewPolicyBuilder returns a builder for a strict policy that fails on any conflict.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{p: Policy{
		override: make(map[content.Location]bool),
		preserve: make(map[content.Location]bool),
	}}
}

// OverrideAll overwrites all conflicting content.
func (b *PolicyBuilder) OverrideAll() *PolicyBuilder {
	b.p.overrideAll = true
	return b
}

// PreserveAll keeps all conflicting content.
func (b *PolicyBuilder) PreserveAll() *PolicyBuilder {
	b.p.preserveAll = true
	return b
}

// IgnoreModuleChanges overwrites conflicting modules.
func (b *PolicyBuilder) IgnoreModuleChanges() *PolicyBuilder {
	b.p.ignoreModuleChanges = true
	return b
}

// OverrideItem overwrites the item if it conflicts.
func (b *PolicyBuilder) OverrideItem(item content.Item) *PolicyBuilder {
	b.p.override[item.Location()] = true
	return b
}

// PreserveItem keeps the item if it conflicts.
func (b *PolicyBuilder) PreserveItem(item content.Item) *PolicyBuilder {
	b.p.preserve[item.Location()] = true
	return b
}

// Build returns the policy.
func (b *PolicyBuilder) Build() *Policy {
	p := b.p
	p.override = copySet(b.p.override)
	p.preserve = copySet(b.p.preserve)
	return &p
}

// PolicyFromConfig returns the builder for the configured default policy.
func PolicyFromConfig(cfg config.PolicyConfig) *PolicyBuilder {
	b := NewPolicyBuilder()
	if cfg.OverrideAll {
		b.OverrideAll()
	}
	if cfg.PreserveAll {
		b.PreserveAll()
	}
	if cfg.IgnoreModuleChanges {
		b.IgnoreModuleChanges()
	}
	return b
}

func copySet(m map[content.Location]bool) map[content.Location]bool {
	c := make(map[content.Location]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
