// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validator

import (
	"fmt"
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SchemaError is the error type returned by Compile.
type SchemaError struct {
	// SchemaURL is the url to json-schema that filed to compile.
	// This is helpful, if your schema refers to external schemas
	SchemaURL string

	// Err is the error that occurred during compilation.
	Err error
}

func (se *SchemaError) Error() string {
	return fmt.Sprintf("json-schema %q compilation failed: %v", se.SchemaURL, se.Err)
}

func (se *SchemaError) Unwrap() error {
	return se.Err
}

// --

// UnresolvedReferenceError tells that a $ref could not be resolved,
// either because the target document could not be loaded or because
// the pointer or anchor does not exist in it.
type UnresolvedReferenceError struct {
	Ref      string // $ref value as written
	Location string // location of schema containing $ref
	Err      error
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved $ref %q in %q: %v", e.Ref, e.Location, e.Err)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Err
}

// --

// MalformedKeywordError tells that a keyword value has wrong shape,
// such as a negative minLength or a type name that does not exist.
type MalformedKeywordError struct {
	Keyword  string
	Location string
	Reason   string
}

func (e *MalformedKeywordError) Error() string {
	return fmt.Sprintf("malformed %s in %q: %s", e.Keyword, e.Location, e.Reason)
}

// --

// UnsupportedKeywordError tells that schema uses a keyword
// whose semantics are not implemented.
type UnsupportedKeywordError struct {
	Keyword  string
	Location string
}

func (e *UnsupportedKeywordError) Error() string {
	return fmt.Sprintf("unsupported keyword %s in %q", e.Keyword, e.Location)
}

// --

// InvalidSchemaError tells that value at Location is neither object
// nor boolean.
type InvalidSchemaError struct {
	Location string
	Got      string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("schema at %q must be object or boolean, got %s", e.Location, e.Got)
}

// --

type JSONPointerNotFoundError struct {
	URL string
}

func (e *JSONPointerNotFoundError) Error() string {
	return fmt.Sprintf("json-pointer in %q not found", e.URL)
}

// --

type ParseURLError struct {
	URL string
	Err error
}

func (e *ParseURLError) Error() string {
	return fmt.Sprintf("error in parsing %q: %v", e.URL, e.Err)
}

// --

// ErrorKind describes why a value failed validation.
// Implementations live in package kind.
type ErrorKind interface {
	KeywordPath() []string
	LocalizedString(*message.Printer) string
}

// ValidationError is the error type returned by Validate.
type ValidationError struct {
	// SchemaURL is the absolute location of the schema whose keyword failed.
	SchemaURL string

	// InstanceLocation is the json-pointer tokens of the failing value.
	InstanceLocation []string

	ErrorKind ErrorKind
	Causes    []*ValidationError
}

var english = message.NewPrinter(language.English)

func (e *ValidationError) Error() string {
	return e.LocalizedError(english)
}

// LocalizedError renders e and its causes as an indented tree using p.
func (e *ValidationError) LocalizedError(p *message.Printer) string {
	var sb strings.Builder
	e.display(&sb, 0, p, false)
	return sb.String()
}

// GoString renders e like Error, with location of each failed keyword.
func (e *ValidationError) GoString() string {
	var sb strings.Builder
	e.display(&sb, 0, english, true)
	return sb.String()
}

func (e *ValidationError) display(sb *strings.Builder, indent int, p *message.Printer, verbose bool) {
	line := func() {
		fmt.Fprintf(sb, "- at %s", quote(e.InstancePointer()))
		if verbose {
			fmt.Fprintf(sb, " [%s]", e.KeywordLocation())
		}
		fmt.Fprintf(sb, ": %s", e.ErrorKind.LocalizedString(p))
	}
	if indent == 0 {
		if _, ok := e.ErrorKind.(*kind.Schema); ok {
			sb.WriteString(e.ErrorKind.LocalizedString(p))
		} else {
			sb.WriteString(p.Sprintf("jsonschema validation failed with %s", quote(e.SchemaURL)))
			sb.WriteString("\n  ")
			line()
			indent++
		}
	} else {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", indent))
		line()
	}
	for _, c := range e.Causes {
		c.displayCause(sb, indent+1, p, verbose)
	}
}

// displayCause shows causes of wrapper errors in place of them.
func (e *ValidationError) displayCause(sb *strings.Builder, indent int, p *message.Printer, verbose bool) {
	if !isWrapper(e.ErrorKind) {
		e.display(sb, indent, p, verbose)
		return
	}
	for _, c := range e.Causes {
		c.displayCause(sb, indent, p, verbose)
	}
}

// InstancePointer returns InstanceLocation as json-pointer.
func (e *ValidationError) InstancePointer() string {
	return instancePointer(e.InstanceLocation)
}

// KeywordLocation returns absolute location of the failed keyword.
func (e *ValidationError) KeywordLocation() string {
	kw := e.ErrorKind.KeywordPath()
	if len(kw) == 0 {
		return e.SchemaURL
	}
	loc := e.SchemaURL
	if !strings.Contains(loc, "#") {
		loc += "#"
	}
	for _, tok := range kw {
		loc += "/" + escape(tok)
	}
	return loc
}

func instancePointer(tokens []string) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteByte('/')
		sb.WriteString(escape(tok))
	}
	return sb.String()
}

// keywordName returns name of the keyword that failed with k, or
// empty string if k is not tied to a keyword.
func keywordName(k ErrorKind) string {
	if kw := k.KeywordPath(); len(kw) > 0 {
		return kw[0]
	}
	return ""
}

// isWrapper tells whether errors of kind k only group their causes.
func isWrapper(k ErrorKind) bool {
	switch k.(type) {
	case *kind.Schema, *kind.Group, *kind.Reference:
		return true
	}
	return false
}
