package state

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-confgen/pkg/forms"
	"github.com/goliatone/go-confgen/pkg/model"
)

var (
	// ErrUnknownPath is returned when a path has no field spec behind it or
	// addresses an entry that does not exist.
	ErrUnknownPath = errors.New("state: unknown path")
	// ErrNotGroup is returned when a group operation targets a path that is
	// not a declared repeated group.
	ErrNotGroup = errors.New("state: not a repeated group")
	// ErrInvalidID is returned for entry identities that could be read as a
	// position or a path: numeric, dotted, wildcard or blank.
	ErrInvalidID = errors.New("state: invalid entry identity")
)

// Entry is one element of a repeated group. ID is assigned when the entry is
// created and never changes, whatever its position.
type Entry struct {
	ID     string
	Values map[string]any
}

// Group is the ordered sequence of entries stored at a group path.
type Group []Entry

// Option configures a Tree.
type Option func(*Tree)

// WithIDGenerator replaces the identity source for new group entries.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tree) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// ValidID reports whether id can address an entry without being mistaken
// for an index or a nested path.
func ValidID(id string) bool {
	if strings.TrimSpace(id) != id || id == "" || id == model.Wildcard {
		return false
	}
	if strings.Contains(id, ".") {
		return false
	}
	_, err := strconv.Atoi(id)
	return err != nil
}

// NewID returns a time ordered UUID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Tree is the value state of one form instance. It is immutable: every
// mutation returns a new Tree and leaves the receiver untouched, so a Tree
// can be handed to a submission while the UI keeps editing.
type Tree struct {
	def    *forms.Definition
	values map[string]any
	newID  func() string
}

// New builds a tree for def from plain values. Groups may be given as
// []map[string]any, []any of objects, Group, or (for groups with a leaf) a
// []string of leaf values. Values without a spec are rejected.
func New(def *forms.Definition, values map[string]any, opts ...Option) (*Tree, error) {
	if def == nil {
		return nil, errors.New("state: definition is required")
	}
	t := &Tree{def: def, values: map[string]any{}, newID: NewID}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	for _, key := range sortedKeys(values) {
		if !def.Known(model.PatternOf(key)) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPath, key)
		}
		normalized, err := t.normalize(key, values[key])
		if err != nil {
			return nil, err
		}
		t.values[key] = normalized
	}
	return t, nil
}

// Reset returns the default tree of def, with fresh identities for every
// seeded group entry.
func Reset(def *forms.Definition, opts ...Option) (*Tree, error) {
	if def == nil {
		return nil, errors.New("state: definition is required")
	}
	return New(def, def.DefaultValues(), opts...)
}

// Definition returns the definition the tree was built for.
func (t *Tree) Definition() *forms.Definition {
	if t == nil {
		return nil
	}
	return t.def
}

// Type returns the form type of the tree.
func (t *Tree) Type() model.FormType {
	if t == nil || t.def == nil {
		return ""
	}
	return t.def.Type
}

// Get resolves a dotted path. Group segments may be an index or an entry
// identity. The returned value is a copy.
func (t *Tree) Get(path string) (any, bool) {
	value, ok := t.lookup(path)
	if !ok {
		return nil, false
	}
	return deepCopy(value), true
}

// Set returns a new tree with the subtree at path replaced by value.
// Sibling paths are left untouched; nothing is merged.
func (t *Tree) Set(path string, value any) (*Tree, error) {
	if t == nil {
		return nil, errors.New("state: tree is nil")
	}
	canonical, err := t.Canonical(path)
	if err != nil {
		return nil, err
	}
	if !t.def.Known(model.PatternOf(canonical)) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	normalized, err := t.normalize(canonical, value)
	if err != nil {
		return nil, err
	}

	next := t.clone()
	root, err := put(next.values, splitPath(canonical), normalized)
	if err != nil {
		return nil, fmt.Errorf("state: set %q: %w", path, err)
	}
	next.values = root.(map[string]any)
	return next, nil
}

// Canonical rewrites identity segments in path to their current index.
// Identities are never numeric (see ValidID), so a numeric segment is always
// a position.
func (t *Tree) Canonical(path string) (string, error) {
	if t == nil || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	segments := strings.Split(path, ".")
	var current any = t.values
	for i, segment := range segments {
		switch node := current.(type) {
		case Group:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				idx = node.index(segment)
			}
			if idx < 0 || idx >= len(node) {
				return "", fmt.Errorf("%w: %q", ErrUnknownPath, path)
			}
			segments[i] = strconv.Itoa(idx)
			current = node[idx].Values
		case map[string]any:
			current = node[segment]
		default:
			current = nil
		}
	}
	return strings.Join(segments, "."), nil
}

// Match returns every concrete leaf present in the tree whose pattern is
// pattern, in entry order.
func (t *Tree) Match(pattern string) []model.PathValue {
	var out []model.PathValue
	for _, path := range t.Expand(pattern) {
		if value, ok := t.lookup(path); ok {
			out = append(out, model.PathValue{Path: path, Value: value})
		}
	}
	return out
}

// Expand lists the concrete paths pattern addresses given the current group
// entries, whether or not a value is stored there yet.
func (t *Tree) Expand(pattern string) []string {
	if t == nil || pattern == "" {
		return nil
	}
	var out []string
	var walk func(node any, segments []string, prefix string)
	walk = func(node any, segments []string, prefix string) {
		if len(segments) == 0 {
			out = append(out, prefix)
			return
		}
		head := segments[0]
		if head == model.Wildcard {
			group, ok := node.(Group)
			if !ok {
				return
			}
			for i, entry := range group {
				walk(entry.Values, segments[1:], model.JoinPath(prefix, strconv.Itoa(i)))
			}
			return
		}
		var next any
		if m, ok := node.(map[string]any); ok {
			next = m[head]
		}
		walk(next, segments[1:], model.JoinPath(prefix, head))
	}
	walk(t.values, strings.Split(pattern, "."), "")
	return out
}

// Values returns the tree as plain maps: groups become []map[string]any and
// identities are dropped.
func (t *Tree) Values() map[string]any {
	if t == nil {
		return map[string]any{}
	}
	return plain(t.values).(map[string]any)
}

// Snapshot returns a deep copy of the tree.
func (t *Tree) Snapshot() *Tree {
	if t == nil {
		return nil
	}
	return t.clone()
}

func (t *Tree) clone() *Tree {
	return &Tree{
		def:    t.def,
		values: deepCopy(t.values).(map[string]any),
		newID:  t.newID,
	}
}

func (t *Tree) lookup(path string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}
	var current any = t.values
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case Group:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				idx = node.index(segment)
			}
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx].Values
		default:
			return nil, false
		}
	}
	return current, true
}

func (t *Tree) normalize(path string, value any) (any, error) {
	pattern := model.PatternOf(path)
	if spec, ok := t.def.Group(pattern); ok {
		return t.normalizeGroup(path, spec, value)
	}
	if _, isField := t.def.Field(pattern); isField {
		return deepCopy(value), nil
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("state: %q holds fields and needs an object, got %T", path, value)
	}
	return t.normalizeObject(path, object)
}

func (t *Tree) normalizeObject(path string, object map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(object))
	for _, key := range sortedKeys(object) {
		childPath := model.JoinPath(path, key)
		if !t.def.Known(model.PatternOf(childPath)) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPath, childPath)
		}
		normalized, err := t.normalize(childPath, object[key])
		if err != nil {
			return nil, err
		}
		out[key] = normalized
	}
	return out, nil
}

func (t *Tree) normalizeGroup(path string, spec forms.GroupSpec, value any) (Group, error) {
	var items []map[string]any
	var ids []string

	switch typed := value.(type) {
	case nil:
	case Group:
		for _, entry := range typed {
			items = append(items, entry.Values)
			ids = append(ids, entry.ID)
		}
	case []Entry:
		for _, entry := range typed {
			items = append(items, entry.Values)
			ids = append(ids, entry.ID)
		}
	case []map[string]any:
		items = typed
	case []any:
		for i, item := range typed {
			object, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("state: %s.%d must be an object, got %T", path, i, item)
			}
			items = append(items, object)
		}
	case []string:
		if spec.Leaf == "" {
			return nil, fmt.Errorf("state: group %q has no leaf to hold plain values", path)
		}
		for _, item := range typed {
			items = append(items, map[string]any{spec.Leaf: item})
		}
	default:
		return nil, fmt.Errorf("state: group %q needs a list, got %T", path, value)
	}

	group := make(Group, 0, len(items))
	for i, item := range items {
		values, err := t.normalizeObject(model.JoinPath(path, strconv.Itoa(i)), item)
		if err != nil {
			return nil, err
		}
		id := ""
		if i < len(ids) {
			id = ids[i]
		}
		if id == "" {
			id = t.newID()
		}
		if !ValidID(id) {
			return nil, fmt.Errorf("%w: %s.%d has identity %q", ErrInvalidID, path, i, id)
		}
		if group.index(id) >= 0 {
			return nil, fmt.Errorf("%w: %s has duplicate identity %q", ErrInvalidID, path, id)
		}
		group = append(group, Entry{ID: id, Values: values})
	}
	return group, nil
}

// sortedKeys keeps identity assignment deterministic for a given input.
func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

func (g Group) index(id string) int {
	for i, entry := range g {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

func put(node any, segments []string, value any) (any, error) {
	head, rest := segments[0], segments[1:]
	switch typed := node.(type) {
	case Group:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(typed) {
			return nil, fmt.Errorf("%w: entry %q", ErrUnknownPath, head)
		}
		if len(rest) == 0 {
			values, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entry %d needs an object, got %T", idx, value)
			}
			typed[idx].Values = values
			return typed, nil
		}
		child, err := put(typed[idx].Values, rest, value)
		if err != nil {
			return nil, err
		}
		typed[idx].Values = child.(map[string]any)
		return typed, nil
	case map[string]any:
		if typed == nil {
			typed = map[string]any{}
		}
		if len(rest) == 0 {
			typed[head] = value
			return typed, nil
		}
		child, err := put(typed[head], rest, value)
		if err != nil {
			return nil, err
		}
		typed[head] = child
		return typed, nil
	case nil:
		return put(map[string]any{}, segments, value)
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, head)
	}
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case Group:
		clone := make(Group, len(typed))
		for i, entry := range typed {
			clone[i] = Entry{ID: entry.ID, Values: deepCopy(entry.Values).(map[string]any)}
		}
		return clone
	default:
		return typed
	}
}

func plain(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = plain(v)
		}
		return out
	case Group:
		out := make([]map[string]any, len(typed))
		for i, entry := range typed {
			out[i] = plain(entry.Values).(map[string]any)
		}
		return out
	default:
		return deepCopy(typed)
	}
}
