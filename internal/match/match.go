// Package match classifies raw item names and occurrence titles against the
// ordered SIG prefix table, and groups matched file items into actionable
// units.
package match

import (
	"strings"

	"sigherald/internal/config"
	"sigherald/internal/model"
)

// Mode selects how a table prefix is tested against a name. The file mover
// uses Contains (artifact names embed the prefix mid-string after renames);
// the calendar watcher uses Prefix (titles are authored to start with it).
type Mode int

const (
	ModeContains Mode = iota
	ModePrefix
)

// Match is the result of classifying one name against the table.
type Match struct {
	SIG config.SIGConfig
	// Auxiliary marks items (chat transcripts) that act alone, without the
	// required-role pairing check. Classification is a substring test on
	// the name, independent of which prefix matched.
	Auxiliary bool
}

// Table is the ordered prefix table plus the classification markers. When
// prefixes overlap, the first entry in table order wins; the config file's
// sequence order is the documented tie-break.
type Table struct {
	sigs            []config.SIGConfig
	roles           []config.RoleConfig
	auxiliaryMarker string
}

func NewTable(cfg *config.Config) *Table {
	return &Table{
		sigs:            cfg.SIGs,
		roles:           cfg.RequiredRoles,
		auxiliaryMarker: cfg.AuxiliaryMarker,
	}
}

// Match returns the first table entry whose prefix matches name under the
// given mode, or ok=false when no entry matches. A non-matching name is not
// an error; callers skip it.
func (t *Table) Match(name string, mode Mode) (Match, bool) {
	for _, sig := range t.sigs {
		var hit bool
		switch mode {
		case ModePrefix:
			hit = strings.HasPrefix(name, sig.Prefix)
		default:
			hit = strings.Contains(name, sig.Prefix)
		}
		if hit {
			return Match{
				SIG:       sig,
				Auxiliary: t.isAuxiliary(name),
			}, true
		}
	}
	return Match{}, false
}

func (t *Table) isAuxiliary(name string) bool {
	return t.auxiliaryMarker != "" && strings.Contains(name, t.auxiliaryMarker)
}

// Group is the set of matched inbox items sharing one table entry, split by
// auxiliary classification. Groups are recomputed from the live listing on
// every tick; nothing about an incomplete group is remembered between ticks.
type Group struct {
	SIG       config.SIGConfig
	Auxiliary bool
	Items     []model.SourceItem
}

// GroupItems partitions matched items by table entry, separating auxiliary
// items from regular ones. Unmatched items are dropped silently. Result
// order follows the table: per entry, the regular group precedes the
// auxiliary group.
func (t *Table) GroupItems(items []model.SourceItem) []Group {
	regular := make(map[string][]model.SourceItem)
	auxiliary := make(map[string][]model.SourceItem)

	for _, item := range items {
		m, ok := t.Match(item.Name, ModeContains)
		if !ok {
			continue
		}
		if m.Auxiliary {
			auxiliary[m.SIG.Prefix] = append(auxiliary[m.SIG.Prefix], item)
		} else {
			regular[m.SIG.Prefix] = append(regular[m.SIG.Prefix], item)
		}
	}

	groups := make([]Group, 0, len(regular)+len(auxiliary))
	for _, sig := range t.sigs {
		if items := regular[sig.Prefix]; len(items) > 0 {
			groups = append(groups, Group{SIG: sig, Items: items})
		}
		if items := auxiliary[sig.Prefix]; len(items) > 0 {
			groups = append(groups, Group{SIG: sig, Auxiliary: true, Items: items})
		}
	}
	return groups
}

// Actionable reports whether a group may be acted on this tick. Auxiliary
// groups always may; a regular group must cover every required role (at
// least one item whose name contains the role's marker). Incomplete groups
// are deferred, not failed: the check is re-evaluated fresh next tick once
// the missing item appears.
func (t *Table) Actionable(g Group) bool {
	if g.Auxiliary {
		return true
	}
	for _, role := range t.roles {
		if len(g.RoleItems(role.Marker)) == 0 {
			return false
		}
	}
	return true
}

// MissingRoles names the required roles a group does not cover yet. Empty
// for actionable groups.
func (t *Table) MissingRoles(g Group) []string {
	if g.Auxiliary {
		return nil
	}
	var missing []string
	for _, role := range t.roles {
		if len(g.RoleItems(role.Marker)) == 0 {
			missing = append(missing, role.Name)
		}
	}
	return missing
}

// RoleItems returns the group's items filling the role identified by marker.
func (g Group) RoleItems(marker string) []model.SourceItem {
	var out []model.SourceItem
	for _, item := range g.Items {
		if strings.Contains(item.Name, marker) {
			out = append(out, item)
		}
	}
	return out
}
