package validator

import (
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/kind"
)

// Mode controls how much of a document is evaluated after the
// first failure.
type Mode int

const (
	// CollectAll evaluates every keyword and reports every failure.
	CollectAll Mode = iota

	// FailFast stops at the first failure.
	FailFast
)

// DefaultMaxDepth bounds nesting of schema applications during
// validation, when Options.MaxDepth is zero.
const DefaultMaxDepth = 10000

// Options customizes Evaluate.
type Options struct {
	Mode     Mode
	MaxDepth int
}

// Violation is a single failed keyword.
type Violation struct {
	Keyword          string // failed keyword, such as "required" or "items"
	InstanceLocation string // json-pointer into the validated value
	KeywordLocation  string // absolute location of the keyword in the schema
	Message          string
}

// Outcome is the result of Evaluate.
type Outcome struct {
	Valid  bool
	Errors []Violation

	// Err is the error tree behind Errors. nil when Valid.
	Err *ValidationError
}

// Validate validates v against s.
//
// returns *ValidationError if v does not conform with schema s,
// reporting every failure.
func (s *Schema) Validate(v jsonvalue.Value) error {
	if err := s.evaluate(v, Options{}); err != nil {
		return err
	}
	return nil
}

// Validate validates v against the root schema of g.
func (g *Graph) Validate(v jsonvalue.Value) error {
	return g.Root.Validate(v)
}

// Evaluate validates v against the root schema of g, and reports the
// failed keywords as a flat list in evaluation order.
func (g *Graph) Evaluate(v jsonvalue.Value, opts Options) Outcome {
	err := g.Root.evaluate(v, opts)
	if err == nil {
		return Outcome{Valid: true}
	}
	return Outcome{Errors: Violations(err), Err: err}
}

func (s *Schema) evaluate(v jsonvalue.Value, opts Options) *ValidationError {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	vd := validator{
		v:        v,
		sch:      s,
		scp:      &scope{sch: s},
		run:      &run{maxDepth: maxDepth},
		failFast: opts.Mode == FailFast,
	}
	err := vd.validate()
	if err == nil {
		return nil
	}
	return &ValidationError{
		SchemaURL: s.Location,
		ErrorKind: &kind.Schema{Location: s.Location},
		Causes:    []*ValidationError{err},
	}
}

// Violations flattens error tree into failed keywords, depth first.
// Errors that only group their causes are skipped.
func Violations(err *ValidationError) []Violation {
	var list []Violation
	var walk func(e *ValidationError)
	walk = func(e *ValidationError) {
		if !isWrapper(e.ErrorKind) {
			list = append(list, Violation{
				Keyword:          keywordName(e.ErrorKind),
				InstanceLocation: e.InstancePointer(),
				KeywordLocation:  e.KeywordLocation(),
				Message:          e.ErrorKind.LocalizedString(english),
			})
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(err)
	return list
}

// --

// run is state shared by a single evaluation.
type run struct {
	maxDepth int
	abort    *ValidationError // set on reference cycle or depth overflow
}

// scope is a schema being applied. Scopes form a chain from the root
// schema to the current one.
type scope struct {
	sch    *Schema
	vid    int // depth of instance the schema is applied to
	depth  int
	parent *scope
}

type validator struct {
	v        jsonvalue.Value
	vloc     []string
	sch      *Schema
	scp      *scope
	run      *run
	failFast bool
	errors   []*ValidationError
}

func (vd *validator) validate() *ValidationError {
	if vd.run.abort != nil {
		return vd.run.abort
	}
	s := vd.sch

	// same schema applied again to same value without progress
	for scp := vd.scp.parent; scp != nil && scp.vid == vd.scp.vid; scp = scp.parent {
		if scp.sch == s {
			vd.run.abort = vd.error(&kind.RefCycle{URL: s.Location})
			return vd.run.abort
		}
	}
	if vd.scp.depth > vd.run.maxDepth {
		vd.run.abort = vd.error(&kind.DepthExceeded{Limit: vd.run.maxDepth})
		return vd.run.abort
	}

	if s.Bool != nil {
		if !*s.Bool {
			return vd.error(&kind.FalseSchema{})
		}
		return nil
	}

	for _, kw := range s.keywords {
		vd.eval(kw)
		if vd.run.abort != nil {
			return vd.run.abort
		}
		if vd.failFast && len(vd.errors) > 0 {
			break
		}
	}

	switch len(vd.errors) {
	case 0:
		return nil
	case 1:
		return vd.errors[0]
	default:
		err := vd.error(&kind.Group{})
		err.Causes = vd.errors
		return err
	}
}

// validateSelf applies sch to the current value. With boolResult only
// pass or fail matters, so evaluation stops at first failure.
func (vd *validator) validateSelf(sch *Schema, boolResult bool) *ValidationError {
	sub := validator{
		v:        vd.v,
		vloc:     vd.vloc,
		sch:      sch,
		scp:      &scope{sch: sch, vid: vd.scp.vid, depth: vd.scp.depth + 1, parent: vd.scp},
		run:      vd.run,
		failFast: vd.failFast || boolResult,
	}
	return sub.validate()
}

// validateVal applies sch to v, found at vtok within current value.
func (vd *validator) validateVal(sch *Schema, v jsonvalue.Value, vtok string, boolResult bool) *ValidationError {
	vloc := append(vd.vloc[:len(vd.vloc):len(vd.vloc)], vtok)
	sub := validator{
		v:        v,
		vloc:     vloc,
		sch:      sch,
		scp:      &scope{sch: sch, vid: vd.scp.vid + 1, depth: vd.scp.depth + 1, parent: vd.scp},
		run:      vd.run,
		failFast: vd.failFast || boolResult,
	}
	return sub.validate()
}

func (vd *validator) error(k ErrorKind) *ValidationError {
	return &ValidationError{
		SchemaURL:        vd.sch.Location,
		InstanceLocation: vd.vloc,
		ErrorKind:        k,
	}
}

func (vd *validator) addError(k ErrorKind) {
	vd.errors = append(vd.errors, vd.error(k))
}

// addErrorWith records failure of kind k caused by causes.
func (vd *validator) addErrorWith(k ErrorKind, causes ...*ValidationError) {
	err := vd.error(k)
	err.Causes = causes
	vd.errors = append(vd.errors, err)
}

// addErr records error returned by sub validation as is.
func (vd *validator) addErr(err *ValidationError) {
	vd.errors = append(vd.errors, err)
}

// stop tells whether evaluation of current keyword must not continue.
func (vd *validator) stop() bool {
	return vd.run.abort != nil || (vd.failFast && len(vd.errors) > 0)
}
