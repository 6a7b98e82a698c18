// Package tag defines the tag store that proxies read from.
//
// A header is an opaque key/value store of tags. Each tag maps to an Entry:
// a type tag, an element count and a big-endian binary payload. The Store
// interface is the narrow collaborator surface the rest of tagproxy uses;
// Header is the in-memory implementation, and Marshal/Unmarshal convert a
// Header to and from its binary image.
//
// # Ownership
//
// A Header is reference counted. New returns a header holding one reference;
// Link adds one and Free drops one. When the last reference is dropped the
// entries are released and every later Lookup reports absent.
//
// Headers are not safe for concurrent use. Every operation is expected to
// run on a single logical thread of control.
package tag
