package validator

import (
	"golang.org/x/text/message"
)

// OutputUnit is a node of the json-schema output formats.
type OutputUnit struct {
	Valid                   bool         `json:"valid"`
	Keyword                 string       `json:"keyword,omitempty"`
	AbsoluteKeywordLocation string       `json:"absoluteKeywordLocation,omitempty"`
	InstanceLocation        string       `json:"instanceLocation"`
	Error                   string       `json:"error,omitempty"`
	Errors                  []OutputUnit `json:"errors,omitempty"`
}

// BasicOutput returns output in basic format, a flat list of failures.
func (e *ValidationError) BasicOutput() *OutputUnit {
	return e.LocalizedBasicOutput(english)
}

// LocalizedBasicOutput returns output in basic format, with messages
// rendered by p.
func (e *ValidationError) LocalizedBasicOutput(p *message.Printer) *OutputUnit {
	out := &OutputUnit{Valid: false}
	var walk func(e *ValidationError)
	walk = func(e *ValidationError) {
		if !isWrapper(e.ErrorKind) {
			out.Errors = append(out.Errors, e.unit(p))
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(e)
	return out
}

// DetailedOutput returns output in detailed format, a tree of failures
// in which nodes that only group their causes are collapsed.
func (e *ValidationError) DetailedOutput() *OutputUnit {
	return e.LocalizedDetailedOutput(english)
}

// LocalizedDetailedOutput returns output in detailed format, with
// messages rendered by p.
func (e *ValidationError) LocalizedDetailedOutput(p *message.Printer) *OutputUnit {
	out := &OutputUnit{Valid: false}
	out.Errors = detailedUnits(e, p)
	if len(out.Errors) == 1 && out.Errors[0].Error == "" {
		out = &out.Errors[0]
	}
	return out
}

func detailedUnits(e *ValidationError, p *message.Printer) []OutputUnit {
	var children []OutputUnit
	for _, c := range e.Causes {
		children = append(children, detailedUnits(c, p)...)
	}
	if isWrapper(e.ErrorKind) {
		return children
	}
	u := e.unit(p)
	u.Errors = children
	return []OutputUnit{u}
}

func (e *ValidationError) unit(p *message.Printer) OutputUnit {
	return OutputUnit{
		Valid:                   false,
		Keyword:                 keywordName(e.ErrorKind),
		AbsoluteKeywordLocation: e.KeywordLocation(),
		InstanceLocation:        e.InstancePointer(),
		Error:                   e.ErrorKind.LocalizedString(p),
	}
}
