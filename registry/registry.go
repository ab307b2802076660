// Package registry implements the factory pool: I/O adapters keyed by
// tag, plus element factories keyed by both tag and capability
// eight-character-code, used to materialize a pipeline's elements from
// names.
//
// There is deliberately no package-level registry: a Pool is an instance
// a caller constructs, owns, and threads through pipeline construction,
// so tests and embedders can scope registrations without process-wide
// state.
package registry

import (
	"fmt"
	"sync"

	"gmf-go/element"
	"gmf-go/errcode"
	"gmf-go/port"
)

// Cap8 is an eight-character capability code ("audiodec", "ratecvt",
// "intrleav", ...). It is not required to be exactly eight bytes; the
// name reflects the convention, not a hard limit.
type Cap8 string

// IOFactory builds an I/O adapter (a port.Acquirer) for a pipeline's
// bound in_uri/out_uri, e.g. "io_file", "io_http".
type IOFactory interface {
	New(uri string) (port.Acquirer, errcode.Code)
}

// ElementFactory builds and casts an element. New produces a skeleton
// object (descriptor + port capability attributes); Cast binds the
// concrete Operator body and copies the user configuration.
type ElementFactory interface {
	New(config any) (*element.Element, errcode.Code)
	Cast(el *element.Element) errcode.Code
}

type elementEntry struct {
	factory ElementFactory
	caps    []Cap8
}

// Pool holds the two factory tables plus a capability index built as
// factories are registered.
type Pool struct {
	mu sync.RWMutex

	ioFactories      map[string]IOFactory
	elementFactories map[string]elementEntry
	capIndex         map[Cap8][]string // capability -> element tags
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		ioFactories:      map[string]IOFactory{},
		elementFactories: map[string]elementEntry{},
		capIndex:         map[Cap8][]string{},
	}
}

// RegisterIO registers an I/O factory under tag. A duplicate tag is a
// programming error, not a runtime condition, so it panics.
func (p *Pool) RegisterIO(tag string, f IOFactory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.ioFactories[tag]; exists {
		panic(fmt.Sprintf("registry: io factory already registered for tag %q", tag))
	}
	p.ioFactories[tag] = f
}

// RegisterElement registers an element factory under tag, indexed
// additionally by each of caps for capability-based discovery.
func (p *Pool) RegisterElement(tag string, f ElementFactory, caps ...Cap8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.elementFactories[tag]; exists {
		panic(fmt.Sprintf("registry: element factory already registered for tag %q", tag))
	}
	p.elementFactories[tag] = elementEntry{factory: f, caps: caps}
	for _, c := range caps {
		p.capIndex[c] = append(p.capIndex[c], tag)
	}
}

// LookupIO returns the I/O factory registered under tag.
func (p *Pool) LookupIO(tag string) (IOFactory, errcode.Code) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.ioFactories[tag]
	if !ok {
		return nil, errcode.NotFound
	}
	return f, errcode.OK
}

// LookupElement returns the element factory registered under tag.
func (p *Pool) LookupElement(tag string) (ElementFactory, errcode.Code) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.elementFactories[tag]
	if !ok {
		return nil, errcode.NotFound
	}
	return e.factory, errcode.OK
}

// TagsByCapability returns every element tag registered under cap, so a
// host can discover an element by its published eight-character-code
// instead of a hard-coded tag.
func (p *Pool) TagsByCapability(cap Cap8) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.capIndex[cap]))
	copy(out, p.capIndex[cap])
	return out
}

// Build resolves tag, constructs a fresh element from config, and casts
// it with the factory's concrete operator.
func (p *Pool) Build(tag string, config any) (*element.Element, errcode.Code) {
	factory, code := p.LookupElement(tag)
	if code != errcode.OK {
		return nil, code
	}
	el, code := factory.New(config)
	if code != errcode.OK {
		return nil, code
	}
	if code := factory.Cast(el); code != errcode.OK {
		return nil, code
	}
	return el, errcode.OK
}

// BuildIO resolves tag and constructs an I/O adapter bound to uri.
func (p *Pool) BuildIO(tag, uri string) (port.Acquirer, errcode.Code) {
	factory, code := p.LookupIO(tag)
	if code != errcode.OK {
		return nil, code
	}
	return factory.New(uri)
}
