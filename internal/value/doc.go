// Package value provides the host-visible value model for tagproxy.
//
// Every value a proxy hands to its host is a value.Value. The set of
// implementations is sealed: Null, String, Int, Bool, Array and Object.
// There is no float type; tag payloads only ever carry integers and strings.
//
// This package imports nothing internal. All other internal packages may
// import it.
package value
