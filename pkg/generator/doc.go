// Package generator implements the submit collaborators over HTTP. Endpoint
// paths come from an embedded OpenAPI contract keyed by form type, so the
// client and the server agree on routes and request shapes.
package generator
