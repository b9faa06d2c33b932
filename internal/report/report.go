// Package report renders validation failures for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	validator "github.com/CMSgov/price-transparency-guide-validator"
)

// Failure is a document that did not pass validation.
type Failure struct {
	// Line where the record starts. Zero for a single json document.
	Line int

	// Malformed is set if the record is not valid json.
	Malformed error

	// Output is the detailed output of failed keywords. nil when
	// Malformed is set.
	Output *validator.OutputUnit
}

// WriteText writes failures as a plain text report. Each failed keyword
// is written as a block of "Name: value" lines; nested failures are
// indented under the keyword that applied them, with a Context line
// naming that keyword.
func WriteText(w io.Writer, failures []Failure) error {
	tw := &textWriter{w: w}
	for _, f := range failures {
		if f.Line > 0 {
			tw.printf("Line %d\n", f.Line)
		}
		if f.Malformed != nil {
			tw.printf("Error Name: parse\nMessage: %v\n\n", f.Malformed)
			continue
		}
		if f.Output == nil {
			continue
		}
		units := []validator.OutputUnit{*f.Output}
		if f.Output.Error == "" {
			units = f.Output.Errors
		}
		for _, u := range units {
			tw.unit(u, 0, "")
		}
	}
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, a ...any) {
	if tw.err == nil {
		_, tw.err = fmt.Fprintf(tw.w, format, a...)
	}
}

func (tw *textWriter) unit(u validator.OutputUnit, depth int, context string) {
	indent := strings.Repeat("  ", depth)
	name := errorName(u)
	tw.printf("%sError Name: %s\n", indent, name)
	tw.printf("%sMessage: %s\n", indent, u.Error)
	tw.printf("%sInstance: #%s\n", indent, u.InstanceLocation)
	tw.printf("%sSchema: %s\n", indent, u.AbsoluteKeywordLocation)
	if depth > 0 {
		tw.printf("%sContext: %s\n", indent, context)
	}
	tw.printf("\n")
	for _, c := range u.Errors {
		tw.unit(c, depth+1, name)
	}
}

func errorName(u validator.OutputUnit) string {
	if u.Keyword == "" {
		return "schema"
	}
	return u.Keyword
}

// errorsEntry is an item of errors.json for ndjson input.
type errorsEntry struct {
	Line   int                   `json:"line"`
	Error  string                `json:"error,omitempty"`
	Output *validator.OutputUnit `json:"output,omitempty"`
}

// WriteJSON writes failures as indented json. A single document is
// written as its output unit; records of ndjson input are written as
// an array of objects carrying the line number.
func WriteJSON(w io.Writer, failures []Failure) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(failures) == 1 && failures[0].Line == 0 {
		f := failures[0]
		if f.Malformed != nil {
			return enc.Encode(map[string]any{"valid": false, "error": f.Malformed.Error()})
		}
		return enc.Encode(f.Output)
	}
	entries := make([]errorsEntry, 0, len(failures))
	for _, f := range failures {
		e := errorsEntry{Line: f.Line, Output: f.Output}
		if f.Malformed != nil {
			e.Error = f.Malformed.Error()
		}
		entries = append(entries, e)
	}
	return enc.Encode(entries)
}

// Dir writes report files into an output directory.
type Dir struct {
	Path string
}

// Prepare creates the directory if missing.
func (d Dir) Prepare() error {
	fi, err := os.Stat(d.Path)
	switch {
	case err == nil && !fi.IsDir():
		return fmt.Errorf("could not use directory %q for output: path already exists and is not a directory", d.Path)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return os.MkdirAll(d.Path, 0o755)
	}
	return err
}

// WriteFailures writes output.txt, and errors.json when there are
// failures.
func (d Dir) WriteFailures(failures []Failure) error {
	err := d.write("output.txt", func(w io.Writer) error {
		if len(failures) == 0 {
			_, err := io.WriteString(w, "Input JSON is valid.\n")
			return err
		}
		if _, err := io.WriteString(w, "Input JSON is invalid.\n"); err != nil {
			return err
		}
		return WriteText(w, failures)
	})
	if err != nil || len(failures) == 0 {
		return err
	}
	return d.write("errors.json", func(w io.Writer) error {
		return WriteJSON(w, failures)
	})
}

// WriteLocations writes one json file per report of c.
func (d Dir) WriteLocations(c *Collector) error {
	for _, r := range c.reports {
		if err := d.write(r.File, func(w io.Writer) error {
			return r.writeJSON(w)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (d Dir) write(name string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Join(d.Path, name))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
