package submit

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/state"
)

// MapDetails attaches remote details to the concrete field paths of tree so
// renderers can show them inline. Locations are matched on their longest
// known prefix after request wrappers ("body") are dropped; a location that
// ends on a leaf group entry ("lb_nodes", 0) resolves to that entry's leaf.
// Details matching nothing are returned as form-level messages.
func MapDetails(tree *state.Tree, details []Detail) (map[string][]string, []string) {
	fields := make(map[string][]string)
	var form []string
	if tree == nil {
		for _, detail := range details {
			form = appendMessage(form, detail.Msg)
		}
		return nil, form
	}

	known := knownPaths(tree)
	for _, detail := range details {
		msg := strings.TrimSpace(detail.Msg)
		if msg == "" {
			continue
		}
		segments := dropWrapperSegments(cleanSegments(detail.Loc))
		segments = withGroupLeaf(tree, segments)

		path := longestMatchingPath(segments, known)
		if path == "" {
			form = appendMessage(form, msg)
			continue
		}
		fields[path] = appendMessage(fields[path], msg)
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, form
}

func knownPaths(tree *state.Tree) map[string]struct{} {
	def := tree.Definition()
	known := make(map[string]struct{})
	for _, group := range def.Groups {
		known[group.Path] = struct{}{}
	}
	for _, spec := range def.Fields {
		for _, path := range tree.Expand(spec.Name) {
			known[path] = struct{}{}
		}
	}
	return known
}

func cleanSegments(loc Location) []string {
	out := make([]string, 0, len(loc))
	for _, segment := range loc {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":    {},
		"request": {},
		"payload": {},
		"data":    {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; ok {
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func withGroupLeaf(tree *state.Tree, segments []string) []string {
	if len(segments) != 2 {
		return segments
	}
	if _, err := strconv.Atoi(segments[1]); err != nil {
		return segments
	}
	group, ok := tree.GroupSpec(segments[0])
	if !ok || group.Leaf == "" {
		return segments
	}
	return append(append([]string(nil), segments...), group.Leaf)
}

func longestMatchingPath(segments []string, known map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := model.JoinPath(segments[:end]...)
		if _, ok := known[candidate]; ok {
			return candidate
		}
	}
	return ""
}

func appendMessage(messages []string, msg string) []string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return messages
	}
	for _, existing := range messages {
		if existing == msg {
			return messages
		}
	}
	return append(messages, msg)
}
