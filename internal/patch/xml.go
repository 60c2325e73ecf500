package patch

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/content"
)

type xmlPatch struct {
	XMLName     xml.Name     `xml:"patch"`
	ID          string       `xml:"id,attr"`
	Description string       `xml:"description"`
	Identity    *xmlIdentity `xml:"identity"`
	OneOff      *struct{}    `xml:"one-off"`
	Upgrade     *xmlUpgrade  `xml:"upgrade"`
	Misc        xmlSection   `xml:"misc-files"`
	Modules     xmlSection   `xml:"modules"`
	Bundles     xmlSection   `xml:"bundles"`
}

type xmlIdentity struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
}

type xmlUpgrade struct {
	ToVersion string `xml:"to-version,attr"`
}

type xmlSection struct {
	Added   []xmlItem `xml:"added"`
	Updated []xmlItem `xml:"updated"`
	Removed []xmlItem `xml:"removed"`
}

type xmlItem struct {
	Path           string        `xml:"path,attr"`
	Name           string        `xml:"name,attr"`
	Slot           string        `xml:"slot,attr"`
	Hash           string        `xml:"hash,attr"`
	ExistingHash   string        `xml:"existing-hash,attr"`
	Directory      bool          `xml:"directory,attr"`
	AffectsRuntime bool          `xml:"affects-runtime,attr"`
	Requires       []xmlRequires `xml:"requires"`
}

type xmlRequires struct {
	Path string `xml:"path,attr"`
}

type xmlBundle struct {
	XMLName  xml.Name        `xml:"patches"`
	Elements []BundleElement `xml:"element"`
}

// Parse reads patch metadata from r.
func Parse(r io.Reader) (*Patch, error) {
	var doc xmlPatch
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse patch metadata: %w", err)
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing patch id", ErrInvalidMetadata)
	}
	if err := validateIdentifier("patch id", doc.ID); err != nil {
		return nil, err
	}
	if doc.Identity == nil || doc.Identity.Name == "" {
		return nil, fmt.Errorf("%w: patch %s has no identity", ErrInvalidMetadata, doc.ID)
	}
	if err := validateIdentifier("stream", doc.Identity.Name); err != nil {
		return nil, err
	}

	p := &Patch{
		ID:          doc.ID,
		Description: doc.Description,
		Stream:      doc.Identity.Name,
		AppliesTo:   doc.Identity.Version,
		Type:        OneOff,
	}
	switch {
	case doc.Upgrade != nil && doc.OneOff != nil:
		return nil, fmt.Errorf("%w: patch %s is both one-off and upgrade", ErrInvalidMetadata, doc.ID)
	case doc.Upgrade != nil:
		if doc.Upgrade.ToVersion == "" {
			return nil, fmt.Errorf("%w: upgrade of patch %s has no target version", ErrInvalidMetadata, doc.ID)
		}
		p.Type = Cumulative
		p.ResultingVersion = doc.Upgrade.ToVersion
	}

	sections := []struct {
		section xmlSection
		typ     content.Type
	}{
		{doc.Misc, content.TypeMisc},
		{doc.Bundles, content.TypeBundle},
		{doc.Modules, content.TypeModule},
	}
	for _, s := range sections {
		mods, err := s.section.modifications(s.typ)
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", doc.ID, err)
		}
		p.Modifications = append(p.Modifications, mods...)
	}

	return p, nil
}

// ParseFile reads patch metadata from a file.
func ParseFile(path string) (*Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patch metadata: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// ResolveForVersion returns the metadata of p that applies to the installed
// version. When p was built against another version, the metadata is read
// from patch-<installed>.xml in dir.
func ResolveForVersion(p *Patch, dir, installed string) (*Patch, error) {
	if p.AppliesTo == installed {
		return p, nil
	}

	path := filepath.Join(dir, VersionedMetadataFile(installed))
	chained, err := ParseFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s applies to %s, installed %s", ErrVersionMismatch, p.ID, p.AppliesTo, installed)
		}
		return nil, err
	}
	if chained.ID != p.ID {
		return nil, fmt.Errorf("%w: %s declares patch %s, expected %s", ErrInvalidMetadata, filepath.Base(path), chained.ID, p.ID)
	}
	if chained.AppliesTo != installed {
		return nil, fmt.Errorf("%w: %s applies to %s, installed %s", ErrVersionMismatch, p.ID, chained.AppliesTo, installed)
	}
	return chained, nil
}

// VersionedMetadataFile returns the name of the metadata variant for a version.
func VersionedMetadataFile(version string) string {
	return "patch-" + version + ".xml"
}

func (s xmlSection) modifications(typ content.Type) ([]content.Modification, error) {
	var mods []content.Modification
	add := func(items []xmlItem, modType content.ModificationType) error {
		for _, x := range items {
			mod, err := x.modification(typ, modType)
			if err != nil {
				return err
			}
			mods = append(mods, mod)
		}
		return nil
	}
	if err := add(s.Added, content.ModificationAdd); err != nil {
		return nil, err
	}
	if err := add(s.Updated, content.ModificationModify); err != nil {
		return nil, err
	}
	if err := add(s.Removed, content.ModificationRemove); err != nil {
		return nil, err
	}
	return mods, nil
}

func (x xmlItem) modification(typ content.Type, modType content.ModificationType) (content.Modification, error) {
	newHash, err := content.ParseHash(x.Hash)
	if err != nil {
		return content.Modification{}, err
	}
	existing, err := content.ParseHash(x.ExistingHash)
	if err != nil {
		return content.Modification{}, err
	}

	switch modType {
	case content.ModificationAdd:
		if newHash.IsEmpty() {
			return content.Modification{}, fmt.Errorf("%w: added %s has no hash", ErrInvalidMetadata, x.label())
		}
		existing = content.Hash{}
	case content.ModificationRemove:
		if existing.IsEmpty() {
			return content.Modification{}, fmt.Errorf("%w: removed %s has no existing hash", ErrInvalidMetadata, x.label())
		}
		newHash = content.Hash{}
	case content.ModificationModify:
		if newHash.IsEmpty() || existing.IsEmpty() {
			return content.Modification{}, fmt.Errorf("%w: updated %s needs hash and existing hash", ErrInvalidMetadata, x.label())
		}
	}

	var item content.Item
	switch typ {
	case content.TypeMisc:
		if len(content.SplitPath(x.Path)) == 0 {
			return content.Modification{}, fmt.Errorf("%w: misc item without path", ErrInvalidMetadata)
		}
		if err := validateRelPath(x.Path); err != nil {
			return content.Modification{}, err
		}
		item = content.NewMiscItem(x.Path, newHash, x.Directory, x.AffectsRuntime)
	case content.TypeModule:
		if x.Name == "" {
			return content.Modification{}, fmt.Errorf("%w: module without name", ErrInvalidMetadata)
		}
		if err := x.validateModule(); err != nil {
			return content.Modification{}, err
		}
		item = content.NewModuleItem(x.Name, x.Slot, newHash)
	case content.TypeBundle:
		if x.Name == "" {
			return content.Modification{}, fmt.Errorf("%w: bundle without name", ErrInvalidMetadata)
		}
		if err := x.validateModule(); err != nil {
			return content.Modification{}, err
		}
		item = content.NewBundleItem(x.Name, x.Slot, newHash)
	}

	var cond *content.Condition
	if len(x.Requires) > 0 {
		cond = &content.Condition{}
		for _, r := range x.Requires {
			cond.Requires = append(cond.Requires, r.Path)
		}
	}

	return content.NewModification(item, existing, modType, cond), nil
}

func (x xmlItem) validateModule() error {
	if err := validateModuleName(x.Name); err != nil {
		return err
	}
	if x.Slot != "" {
		return validateIdentifier("slot", x.Slot)
	}
	return nil
}

func (x xmlItem) label() string {
	if x.Path != "" {
		return x.Path
	}
	return x.Name
}
