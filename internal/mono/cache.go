package mono

import (
	"slices"
	"sync"

	"veil/internal/ast"
	"veil/internal/source"
	"veil/internal/symbols"
	"veil/internal/types"
)

// Key identifies one instantiation.
//
// Note: Go maps cannot use slices as keys, so we store a stable ArgsKey string.
// The arguments themselves live in Entry.Args.
type Key struct {
	Generic symbols.SymbolID
	Args    string
}

// KeyOf builds the key of generic applied to args.
func KeyOf(generic symbols.SymbolID, args []types.TypeID) Key {
	return Key{Generic: generic, Args: types.ArgsKey(args)}
}

// UseSite records a call that asked for an instantiation.
type UseSite struct {
	Span   source.Span
	Caller symbols.SymbolID
}

// Entry is one concrete copy of a generic function.
type Entry struct {
	Key   Key
	Args  []types.TypeID
	Func  *ast.FuncDecl
	Sites []UseSite
}

// Cache holds at most one entry per key. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*Entry
	order   []*Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*Entry)}
}

// Lookup returns the entry of key and records site on it.
func (c *Cache) Lookup(key Key, site UseSite) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		e.record(site)
	}
	return e, ok
}

// Insert stores e unless its key is taken, and returns the entry that ends
// up in the cache.
func (c *Cache) Insert(e *Entry) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[e.Key]; ok {
		for _, s := range e.Sites {
			prev.record(s)
		}
		return prev, false
	}
	e.Args = slices.Clone(e.Args)
	c.entries[e.Key] = e
	c.order = append(c.order, e)
	return e, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries lists entries in insertion order.
func (c *Cache) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}

// Of lists the instances of one generic declaration in insertion order.
func (c *Cache) Of(generic symbols.SymbolID) []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Entry
	for _, e := range c.order {
		if e.Key.Generic == generic {
			out = append(out, e)
		}
	}
	return out
}

func (e *Entry) record(site UseSite) {
	if site.Span == (source.Span{}) {
		return
	}
	for _, existing := range e.Sites {
		if existing == site {
			return
		}
	}
	e.Sites = append(e.Sites, site)
}
