// Package state holds the value tree of a mounted form and the controller
// for its repeated groups.
//
// Paths are dotted. Inside a repeated group the segment after the group name
// is either the entry's current index ("services.1.name") or its identity
// ("services.<id>.name"); identities are assigned on creation and
// survive every append and remove, indexes are recomputed.
package state
