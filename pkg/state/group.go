package state

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
)

// Entries returns a copy of the entries stored at groupPath, in order.
func (t *Tree) Entries(groupPath string) []Entry {
	group, _, ok := t.group(groupPath)
	if !ok {
		return nil
	}
	return deepCopy(group).(Group)
}

// IDs returns the identities of the group's entries, in order.
func (t *Tree) IDs(groupPath string) []string {
	group, _, ok := t.group(groupPath)
	if !ok {
		return nil
	}
	ids := make([]string, len(group))
	for i, entry := range group {
		ids[i] = entry.ID
	}
	return ids
}

// IndexOf reports the current position of id inside the group, or -1.
func (t *Tree) IndexOf(groupPath, id string) int {
	group, _, ok := t.group(groupPath)
	if !ok {
		return -1
	}
	return group.index(id)
}

// EntryPath returns the concrete ordinal path of leaf inside the entry with
// the given identity, e.g. "services.1.name".
func (t *Tree) EntryPath(groupPath, id, leaf string) (string, bool) {
	_, canonical, ok := t.group(groupPath)
	if !ok {
		return "", false
	}
	idx := t.IndexOf(groupPath, id)
	if idx < 0 {
		return "", false
	}
	return model.JoinPath(canonical, strconv.Itoa(idx), leaf), true
}

// Append adds a new entry built from template at the end of the group and
// returns it with its fresh identity. A nil template uses the group's
// declared empty template. The last entry is never copied.
func (t *Tree) Append(groupPath string, template map[string]any) (*Tree, string, error) {
	if t == nil {
		return nil, "", fmt.Errorf("state: tree is nil")
	}
	group, canonical, ok := t.group(groupPath)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrNotGroup, groupPath)
	}
	spec, _ := t.def.Group(model.PatternOf(canonical))
	if template == nil {
		template = spec.NewEntry()
	}
	values, err := t.normalizeObject(model.JoinPath(canonical, strconv.Itoa(len(group))), deepCopy(template).(map[string]any))
	if err != nil {
		return nil, "", err
	}

	entry := Entry{ID: t.newID(), Values: values}
	if !ValidID(entry.ID) || group.index(entry.ID) >= 0 {
		return nil, "", fmt.Errorf("%w: generated %q for %s", ErrInvalidID, entry.ID, canonical)
	}
	next := t.clone()
	updated := append(deepCopy(group).(Group), entry)
	next, err = next.replaceGroup(canonical, updated)
	if err != nil {
		return nil, "", err
	}
	return next, entry.ID, nil
}

// Remove drops exactly the entry identified by id. Unknown identities and the
// protected first entry of a node list leave the tree unchanged.
func (t *Tree) Remove(groupPath, id string) *Tree {
	if !t.Removable(groupPath, id) {
		return t
	}
	group, canonical, _ := t.group(groupPath)
	idx := group.index(id)

	updated := make(Group, 0, len(group)-1)
	for i, entry := range deepCopy(group).(Group) {
		if i != idx {
			updated = append(updated, entry)
		}
	}
	next, err := t.clone().replaceGroup(canonical, updated)
	if err != nil {
		return t
	}
	return next
}

// Removable reports whether Remove would drop the entry, i.e. whether a
// remove control should be offered for it.
func (t *Tree) Removable(groupPath, id string) bool {
	group, canonical, ok := t.group(groupPath)
	if !ok {
		return false
	}
	idx := group.index(id)
	if idx < 0 {
		return false
	}
	spec, _ := t.def.Group(model.PatternOf(canonical))
	return !(spec.ProtectFirst && idx == 0)
}

// GroupSpec returns the declaration of the group at groupPath.
func (t *Tree) GroupSpec(groupPath string) (forms.GroupSpec, bool) {
	if t == nil {
		return forms.GroupSpec{}, false
	}
	return t.def.Group(model.PatternOf(groupPath))
}

func (t *Tree) group(groupPath string) (Group, string, bool) {
	if t == nil {
		return nil, "", false
	}
	canonical, err := t.Canonical(groupPath)
	if err != nil {
		return nil, "", false
	}
	if _, declared := t.def.Group(model.PatternOf(canonical)); !declared {
		return nil, "", false
	}
	value, ok := t.lookup(canonical)
	if !ok {
		return Group{}, canonical, true
	}
	group, ok := value.(Group)
	if !ok {
		return nil, "", false
	}
	return group, canonical, true
}

func (t *Tree) replaceGroup(canonical string, group Group) (*Tree, error) {
	root, err := put(t.values, splitPath(canonical), group)
	if err != nil {
		return nil, fmt.Errorf("state: group %q: %w", canonical, err)
	}
	t.values = root.(map[string]any)
	return t, nil
}
