package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/engine"
)

// policyFlags are the content verification flags shared by apply and rollback.
type policyFlags struct {
	overrideAll         bool
	preserveAll         bool
	ignoreModuleChanges bool
	override            []string
	preserve            []string
}

func (f *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.overrideAll, "override-all", false, "Overwrite every locally modified item")
	cmd.Flags().BoolVar(&f.preserveAll, "preserve-all", false, "Keep every locally modified item")
	cmd.Flags().BoolVar(&f.ignoreModuleChanges, "ignore-module-changes", false, "Overwrite locally modified modules (bundles stay verified)")
	cmd.Flags().StringSliceVar(&f.override, "override", nil, "Overwrite the given item (path, module:<name>[:slot] or bundle:<name>[:slot])")
	cmd.Flags().StringSliceVar(&f.preserve, "preserve", nil, "Keep the given item (path, module:<name>[:slot] or bundle:<name>[:slot])")
	cmd.MarkFlagsMutuallyExclusive("override-all", "preserve-all")
}

// build combines the configured default policy with the command line flags.
func (f *policyFlags) build(cfg config.PolicyConfig) (*engine.Policy, error) {
	b := engine.PolicyFromConfig(cfg)
	if f.overrideAll {
		b.OverrideAll()
	}
	if f.preserveAll {
		b.PreserveAll()
	}
	if f.ignoreModuleChanges {
		b.IgnoreModuleChanges()
	}
	for _, ref := range f.override {
		item, err := parseItemRef(ref)
		if err != nil {
			return nil, err
		}
		b.OverrideItem(item)
	}
	for _, ref := range f.preserve {
		item, err := parseItemRef(ref)
		if err != nil {
			return nil, err
		}
		b.PreserveItem(item)
	}
	return b.Build(), nil
}

// parseItemRef converts a command line item reference into a content item.
// Plain values are misc paths relative to the installation home.
func parseItemRef(ref string) (content.Item, error) {
	kind, rest, found := strings.Cut(ref, ":")
	if !found {
		return miscItem(ref)
	}

	switch content.Type(kind) {
	case content.TypeMisc:
		return miscItem(rest)
	case content.TypeModule, content.TypeBundle:
		name, slot, _ := strings.Cut(rest, ":")
		if name == "" {
			return content.Item{}, fmt.Errorf("invalid item %q: missing name", ref)
		}
		if content.Type(kind) == content.TypeModule {
			return content.NewModuleItem(name, slot, nil), nil
		}
		return content.NewBundleItem(name, slot, nil), nil
	default:
		return miscItem(ref)
	}
}

func miscItem(path string) (content.Item, error) {
	if len(content.SplitPath(path)) == 0 {
		return content.Item{}, fmt.Errorf("invalid item %q: empty path", path)
	}
	return content.NewMiscItem(path, nil, false, false), nil
}
