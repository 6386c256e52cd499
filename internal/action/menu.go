package action

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MenuItem is one entry of the menu tree. A divider carries no other field.
type MenuItem struct {
	Label       string     `toml:"label,omitempty" yaml:"label,omitempty"`
	Palette     string     `toml:"palette,omitempty" yaml:"palette,omitempty"`
	Command     string     `toml:"command,omitempty" yaml:"command,omitempty"`
	Argument    string     `toml:"argument,omitempty" yaml:"argument,omitempty"`
	MinVersion  string     `toml:"min_version,omitempty" yaml:"min_version,omitempty"`
	RetainFocus bool       `toml:"retain_focus,omitempty" yaml:"retain_focus,omitempty"`
	Divider     bool       `toml:"divider,omitempty" yaml:"divider,omitempty"`
	Sub         []MenuItem `toml:"sub,omitempty" yaml:"sub,omitempty"`
}

// Divider returns a divider item.
func Divider() MenuItem {
	return MenuItem{Divider: true}
}

// DisplayLabel returns the palette label, falling back to the menu label.
func (m MenuItem) DisplayLabel() string {
	if m.Palette != "" {
		return m.Palette
	}
	return m.Label
}

// Available reports whether the item applies to the running version. Items
// without a minimum version always apply, and a nil version accepts
// everything. An unparsable minimum hides the item.
func (m MenuItem) Available(version *semver.Version) bool {
	if m.MinVersion == "" || version == nil {
		return true
	}
	minimum, err := semver.NewVersion(m.MinVersion)
	if err != nil {
		return false
	}
	return !version.LessThan(minimum)
}

// Walk visits every non-divider item available to version, depth first.
// Items that are unavailable are skipped together with their sub-menus.
func Walk(items []MenuItem, version *semver.Version, fn func(MenuItem)) {
	for _, item := range items {
		if item.Divider || !item.Available(version) {
			continue
		}
		fn(item)
		if len(item.Sub) > 0 {
			Walk(item.Sub, version, fn)
		}
	}
}

// Validate checks the tree for items that can never be dispatched.
func Validate(items []MenuItem) error {
	for i, item := range items {
		if item.Divider {
			continue
		}
		if item.Label == "" && item.Palette == "" {
			return fmt.Errorf("menu item %d: %w: no label", i, ErrInvalidAction)
		}
		if item.MinVersion != "" {
			if _, err := semver.NewVersion(item.MinVersion); err != nil {
				return fmt.Errorf("menu item %q: min_version: %w", item.DisplayLabel(), err)
			}
		}
		if err := Validate(item.Sub); err != nil {
			return fmt.Errorf("%s > %w", item.DisplayLabel(), err)
		}
	}
	return nil
}

// ParseVersion parses the running application version. An empty string
// yields nil, which makes every item available.
func ParseVersion(v string) (*semver.Version, error) {
	if v == "" {
		return nil, nil
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("version %q: %w", v, err)
	}
	return version, nil
}
