// Package tui fills form trees from a terminal. Prompts go through a
// PromptDriver so tests can script answers.
package tui
