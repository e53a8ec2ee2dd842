// Package forms is the field registry. Each Definition declares the ordered
// field specs of one form type, its repeated groups, its defaults and its
// download parameters. Definitions are validated and decorated once, when
// registered, and are read-only afterwards.
//
// Rendering policy is kept apart from validation: a field's kind decides
// which control renders it (TextArea only for free-text input such as
// "input" or "bug_description"), while its Rule decides what it accepts.
package forms
