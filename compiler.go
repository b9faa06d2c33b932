// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validator

import (
	"fmt"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/loader"
)

// A Compiler turns schema documents into Graphs.
//
// Documents are loaded on demand through its URLLoader and cached, so
// compiling several schemas that share definitions reads each file once.
// A Compiler is not safe for concurrent use; the Graphs it returns are.
type Compiler struct {
	roots        *roots
	formats      map[string]*Format
	assertFormat bool
	regexpEngine RegexpEngine
	schemas      map[urlPtr]*Schema
}

// NewCompiler returns a json-schema Compiler object.
//
// Draft7 is used for documents without $schema, patterns use
// ECMAScript syntax and format is an annotation.
func NewCompiler() *Compiler {
	return &Compiler{
		roots:        newRoots(),
		formats:      map[string]*Format{},
		regexpEngine: ECMARegexp,
		schemas:      map[urlPtr]*Schema{},
	}
}

// DefaultDraft overrides the draft used to compile schemas without
// `$schema` field.
func (c *Compiler) DefaultDraft(d *Draft) {
	c.roots.defaultDraft = d
}

// UseLoader overrides the default [URLLoader] used to load schema
// documents. The default only reads file urls.
func (c *Compiler) UseLoader(l URLLoader) {
	c.roots.loader.loader = l
}

// UseRegexpEngine changes the regexp-engine used.
// By default it uses [ECMARegexp].
func (c *Compiler) UseRegexpEngine(engine RegexpEngine) {
	if engine == nil {
		engine = ECMARegexp
	}
	c.regexpEngine = engine
}

// AssertFormat makes the format keyword an assertion.
// Unknown formats are still ignored.
func (c *Compiler) AssertFormat() {
	c.assertFormat = true
}

// RegisterFormat registers custom format.
//
// NOTE:
//   - "regex" format can not be overridden
//   - format assertions are disabled by default; see [Compiler.AssertFormat].
func (c *Compiler) RegisterFormat(f *Format) {
	if f.Name != "regex" {
		c.formats[f.Name] = f
	}
}

// Strict makes documents loaded afterwards reject properties they
// do not declare. See [MakeStrict].
func (c *Compiler) Strict() {
	c.roots.strict = true
}

// AddResource adds schema resource which gets used later in reference
// resolution.
//
// The argument loc can be file path or url. Any fragment in loc is ignored.
func (c *Compiler) AddResource(loc string, doc jsonvalue.Value) error {
	uf, err := absolute(loc)
	if err != nil {
		return err
	}
	if !c.roots.loader.add(uf.url, doc) {
		return &ResourceExistsError{uf.url.String()}
	}
	return nil
}

// MustCompile is like [Compile] but panics if compilation fails.
// It simplifies safe initialization of global variables holding
// compiled schema.
func (c *Compiler) MustCompile(loc string) *Graph {
	g, err := c.Compile(loc)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: Compile(%q): %v", loc, err))
	}
	return g
}

// Compile compiles json-schema at given loc, along with every schema
// reachable from it. loc is a file path or url, optionally with fragment.
//
// Errors are returned as *SchemaError.
func (c *Compiler) Compile(loc string) (*Graph, error) {
	uf, err := absolute(loc)
	if err != nil {
		return nil, &SchemaError{SchemaURL: loc, Err: err}
	}
	up, err := c.roots.resolveFragment(*uf)
	if err != nil {
		return nil, &SchemaError{SchemaURL: uf.String(), Err: err}
	}

	q := &queue{}
	sch := c.enqueue(q, up)
	for q.hasNext() {
		up := q.next()
		if err := c.compileOne(q, up); err != nil {
			// forget partially compiled schemas
			for _, up := range q.all {
				delete(c.schemas, up)
			}
			return nil, &SchemaError{SchemaURL: up.String(), Err: err}
		}
	}

	g := &Graph{Root: sch, nodes: make(map[string]*Schema, len(c.schemas))}
	for _, s := range c.schemas {
		g.nodes[s.Location] = s
	}
	return g, nil
}

// Load compiles schema document given as bytes. baseLocation is used
// to resolve relative references and to pick yaml or json syntax.
func Load(schema []byte, baseLocation string) (*Graph, error) {
	doc, err := loader.Decode(baseLocation, schema, 0)
	if err != nil {
		return nil, &SchemaError{SchemaURL: baseLocation, Err: err}
	}
	c := NewCompiler()
	if err := c.AddResource(baseLocation, doc); err != nil {
		return nil, &SchemaError{SchemaURL: baseLocation, Err: err}
	}
	return c.Compile(baseLocation)
}

// enqueue returns schema registered for up. If none, an empty schema
// is registered and up is queued for compilation, so that references
// back to up during compilation see the same pointer.
func (c *Compiler) enqueue(q *queue, up urlPtr) *Schema {
	if sch, ok := c.schemas[up]; ok {
		return sch
	}
	sch := newSchema(up)
	c.schemas[up] = sch
	q.push(up)
	return sch
}

func (c *Compiler) compileOne(q *queue, up urlPtr) error {
	r, err := c.roots.orLoad(up.url)
	if err != nil {
		return err
	}
	v, err := up.lookup(r.doc)
	if err != nil {
		return err
	}
	sch := c.schemas[up]
	sch.DraftVersion = r.draft.version

	switch v.Kind() {
	case jsonvalue.KindBool:
		b := v.Bool()
		sch.Bool = &b
		return nil
	case jsonvalue.KindObject:
		oc := objCompiler{c: c, q: q, r: r, up: up, obj: v}
		return oc.compile(sch)
	default:
		return &InvalidSchemaError{Location: up.String(), Got: v.Kind().String()}
	}
}

// --

type queue struct {
	all []urlPtr
	pos int
}

func (q *queue) push(up urlPtr) {
	q.all = append(q.all, up)
}

func (q *queue) hasNext() bool {
	return q.pos < len(q.all)
}

func (q *queue) next() urlPtr {
	up := q.all[q.pos]
	q.pos++
	return up
}

// --

type ResourceExistsError struct {
	URL string
}

func (e *ResourceExistsError) Error() string {
	return fmt.Sprintf("resource for %q already exists", e.URL)
}
