package proxy

import "github.com/roach88/tagproxy/internal/value"

// propertyCache holds defined properties in definition order. A name is
// defined at most once; later definitions are ignored.
type propertyCache struct {
	order []string
	vals  map[string]value.Value
}

func newPropertyCache() *propertyCache {
	return &propertyCache{vals: make(map[string]value.Value)}
}

func (c *propertyCache) lookup(name string) (value.Value, bool) {
	v, ok := c.vals[name]
	return v, ok
}

func (c *propertyCache) define(name string, v value.Value) {
	if _, ok := c.vals[name]; ok {
		return
	}
	c.vals[name] = v
	c.order = append(c.order, name)
}

func (c *propertyCache) keys() []string {
	return append([]string(nil), c.order...)
}

func (c *propertyCache) len() int {
	return len(c.order)
}
