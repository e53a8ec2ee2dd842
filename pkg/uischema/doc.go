// Package uischema loads UI schema overlays (titles, labels, placeholders and
// help text) and applies them to form definitions through a decorator. The
// registry stays unaware of presentation copy; callers opt in by passing the
// decorator to forms.WithDecorators.
package uischema
