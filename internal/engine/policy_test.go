package engine

import (
	"testing"

	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/content"
)

func TestPolicy(t *testing.T) {
	runSh := content.NewMiscItem("bin/run.sh", nil, false, false)
	other := content.NewMiscItem("bin/other.sh", nil, false, false)
	module := content.NewModuleItem("org.example.core", "", nil)

	tests := []struct {
		name         string
		policy       *Policy
		item         content.Item
		wantPreserve bool
		wantIgnore   bool
	}{
		{
			name:   "strict",
			policy: NewPolicyBuilder().Build(),
			item:   runSh,
		},
		{
			name:       "override all",
			policy:     NewPolicyBuilder().OverrideAll().Build(),
			item:       runSh,
			wantIgnore: true,
		},
		{
			name:         "preserve all",
			policy:       NewPolicyBuilder().PreserveAll().Build(),
			item:         runSh,
			wantPreserve: true,
		},
		{
			name:       "override item",
			policy:     NewPolicyBuilder().OverrideItem(runSh).Build(),
			item:       runSh,
			wantIgnore: true,
		},
		{
			name:   "override other item",
			policy: NewPolicyBuilder().OverrideItem(other).Build(),
			item:   runSh,
		},
		{
			name:       "override item beats preserve all",
			policy:     NewPolicyBuilder().PreserveAll().OverrideItem(runSh).Build(),
			item:       runSh,
			wantIgnore: true,
		},
		{
			name:         "preserve item beats override all",
			policy:       NewPolicyBuilder().OverrideAll().PreserveItem(runSh).Build(),
			item:         runSh,
			wantPreserve: true,
		},
		{
			name:       "ignore module changes",
			policy:     NewPolicyBuilder().IgnoreModuleChanges().Build(),
			item:       module,
			wantIgnore: true,
		},
		{
			name:   "ignore module changes leaves misc files",
			policy: NewPolicyBuilder().IgnoreModuleChanges().Build(),
			item:   runSh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.PreserveExisting(tt.item); got != tt.wantPreserve {
				t.Errorf("PreserveExisting() = %v, want %v", got, tt.wantPreserve)
			}
			if got := tt.policy.IgnoreContentValidation(tt.item); got != tt.wantIgnore {
				t.Errorf("IgnoreContentValidation() = %v, want %v", got, tt.wantIgnore)
			}
		})
	}
}

func TestPolicyBuilder_BuildSnapshots(t *testing.T) {
	item := content.NewMiscItem("bin/run.sh", nil, false, false)
	b := NewPolicyBuilder()
	first := b.Build()
	b.OverrideItem(item)

	if first.IgnoreContentValidation(item) {
		t.Error("built policy changed after the builder was modified")
	}
	if !b.Build().IgnoreContentValidation(item) {
		t.Error("expected the new policy to override the item")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.PolicyConfig{IgnoreModuleChanges: true}).Build()
	if !p.IgnoreContentValidation(content.NewModuleItem("org.example.core", "", nil)) {
		t.Error("expected module changes to be ignored")
	}
	if p.IgnoreContentValidation(content.NewMiscItem("bin/run.sh", nil, false, false)) {
		t.Error("expected misc conflicts to fail")
	}
}
