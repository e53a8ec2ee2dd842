// Package web renders form sessions as plain HTML pages. Group entry inputs
// are named by entry identity and each group posts its display order, so a
// page round trip rebuilds the same tree.
package web
