// Package proxy exposes headers and dependency sets as dynamic property
// objects.
//
// A Header proxy materializes properties on demand: the first Get of a tag
// name decodes the entry and defines it as an ordinary property; later
// reads hit the cache. Enumeration walks the cache only, so it is complete
// only after every tag of interest has been accessed.
//
// A Deps proxy exposes a dependency set cursor. N, EVR, F, DNEVR and color
// follow the current entry and are absent when the cursor is not on one.
//
// Lookup failures never surface as errors: Get reports absent. Construction
// failures return an error and no object.
//
// Proxies are created through a Registry, which owns the shared debug level
// of each proxy kind and closes every live proxy on teardown. Nothing here
// is safe for concurrent use.
package proxy
