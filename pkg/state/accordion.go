package state

// Accordion records which entry of a repeated group is expanded. It is keyed
// by entry identity, so the expanded panel follows its entry when siblings
// are added or removed. The zero value has every panel collapsed.
type Accordion struct {
	open string
}

// NewAccordion expands the first entry, as a freshly mounted form does.
func NewAccordion(entries []Entry) Accordion {
	if len(entries) == 0 {
		return Accordion{}
	}
	return Accordion{open: entries[0].ID}
}

// OpenAt restores an accordion from a previously rendered identity.
func OpenAt(id string) Accordion {
	return Accordion{open: id}
}

// Open returns the identity of the expanded entry, or "".
func (a Accordion) Open() string {
	return a.open
}

// IsOpen reports whether the entry with id is expanded.
func (a Accordion) IsOpen(id string) bool {
	return id != "" && a.open == id
}

// Toggle expands id, or collapses it when it is already expanded.
func (a Accordion) Toggle(id string) Accordion {
	if a.open == id {
		return Accordion{}
	}
	return Accordion{open: id}
}

// Sync collapses the accordion when its entry no longer exists.
func (a Accordion) Sync(entries []Entry) Accordion {
	for _, entry := range entries {
		if entry.ID == a.open {
			return a
		}
	}
	return Accordion{}
}
