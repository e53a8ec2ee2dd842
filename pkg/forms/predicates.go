package forms

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-confgen/pkg/model"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Host accepts IPv4/IPv6 literals and RFC 1123 host names.
func Host() model.Custom {
	return model.Custom{
		Name: "host",
		Predicate: func(_ string, value any, _ model.Lookup) error {
			raw := strings.TrimSpace(Text(value))
			if raw == "" {
				return nil
			}
			if net.ParseIP(raw) != nil {
				return nil
			}
			if len(raw) <= 253 && hostnamePattern.MatchString(raw) {
				return nil
			}
			return errors.New("must be an IP address or host name")
		},
	}
}

// Integer accepts whole numbers.
func Integer() model.Custom {
	return model.Custom{
		Name: "integer",
		Predicate: func(_ string, value any, _ model.Lookup) error {
			switch typed := value.(type) {
			case int, int32, int64:
				return nil
			case float64:
				if typed == float64(int64(typed)) {
					return nil
				}
				return errors.New("must be an integer")
			}
			raw := strings.TrimSpace(Text(value))
			if raw == "" {
				return nil
			}
			if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
				return errors.New("must be an integer")
			}
			return nil
		},
	}
}

// UniqueAcross fails when another leaf matching any of patterns holds the
// same value. The field's own path is skipped, so listing the field's own
// pattern checks uniqueness within its group.
func UniqueAcross(patterns ...string) model.Custom {
	return model.Custom{
		Name: "unique",
		Predicate: func(path string, value any, tree model.Lookup) error {
			needle := strings.TrimSpace(Text(value))
			if needle == "" || tree == nil {
				return nil
			}
			for _, pattern := range patterns {
				for _, other := range tree.Match(pattern) {
					if other.Path == path {
						continue
					}
					if strings.TrimSpace(Text(other.Value)) == needle {
						return fmt.Errorf("must be unique, %s has the same value", other.Path)
					}
				}
			}
			return nil
		},
	}
}

// RequireEither fails when both the field and its sibling leaf are blank.
// The sibling path is relative to the field's parent object.
func RequireEither(sibling, message string) model.Custom {
	return model.Custom{
		Name:          "either:" + sibling,
		EvaluateBlank: true,
		Predicate: func(path string, value any, tree model.Lookup) error {
			if strings.TrimSpace(Text(value)) != "" || tree == nil {
				return nil
			}
			parent := ""
			if idx := strings.LastIndex(path, "."); idx >= 0 {
				parent = path[:idx]
			}
			if other, ok := tree.Get(model.JoinPath(parent, sibling)); ok && strings.TrimSpace(Text(other)) != "" {
				return nil
			}
			return errors.New(message)
		},
	}
}

// Text renders a tree value as the string a user would have typed. Option
// pairs resolve to their value.
func Text(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case model.Option:
		return typed.Value
	case *model.Option:
		if typed == nil {
			return ""
		}
		return typed.Value
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
