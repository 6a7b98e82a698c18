// Package deps models dependency sets: ordered (name, version range, flags)
// triples with a cursor.
//
// A Set is built from a header (one dependency type per set, or the
// header's own provides-self entry), from a literal single dependency, or
// from one of four synthetic sets describing the running system: cpuinfo,
// rpmlib, getconf and uname.
//
// Cursor positions are zero-based. Position -1 means "before the first
// entry"; the entry-bound accessors report false there and after the cursor
// runs off the end.
package deps
