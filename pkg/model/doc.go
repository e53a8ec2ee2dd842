// Package model defines the declarative vocabulary shared by every other
// package: form types, the closed set of field kinds, field specs addressed
// by dotted path patterns, the closed ValidationRule sum, and field-level
// errors. Patterns use "*" for repeated-group indexes so a single spec covers
// every entry of a group ("k8s_master_nodes.*.value"). Nothing here holds
// state; trees live in pkg/state and rules are evaluated by pkg/validation.
package model
