package tag

// Store is the tag store collaborator a proxy wraps.
//
// Lookup returns a copy of the entry (copy-on-read). For I18N string entries
// the store performs locale selection and returns a single-string entry.
type Store interface {
	Lookup(t Tag) (Entry, bool)
	Tags() []Tag

	Origin() string
	SetOrigin(origin string)

	// ID identifies the store instance. Dependency sets derived from a store
	// remember only this ID, never the store itself.
	ID() string

	// Link adds a reference and returns the store; Free drops one and
	// returns the number of references left.
	Link() Store
	Free() int
}
