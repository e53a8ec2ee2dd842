// Package submit runs form submissions. An Orchestrator sequences validate,
// transform, generate and download for one tree, and a Session wraps one
// mounted form instance with its busy state and the phase-derived label of
// the submit control.
//
// The generate and download collaborators are interfaces; pkg/generator
// provides the HTTP implementation.
package submit
