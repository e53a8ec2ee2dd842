// Package validation checks form values against their field specs. Validate
// is the pure rule evaluator; Field gives per-edit feedback and Tree runs the
// exhaustive pass that gates a submission.
package validation
