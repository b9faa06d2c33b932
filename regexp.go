package validator

import (
	"regexp"

	"github.com/dlclark/regexp2"
)

// Regexp is an interface for working with regular expressions.
type Regexp interface {
	MatchString(s string) bool
	String() string
}

// RegexpEngine parses a regular expression and returns Regexp.
type RegexpEngine func(expr string) (Regexp, error)

// ECMARegexp compiles expr with ECMAScript semantics, which is
// what json-schema patterns are written in.
func ECMARegexp(expr string) (Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	return ecmaRegexp{re}, nil
}

type ecmaRegexp struct {
	re *regexp2.Regexp
}

func (r ecmaRegexp) MatchString(s string) bool {
	matched, err := r.re.MatchString(s)
	return err == nil && matched
}

func (r ecmaRegexp) String() string {
	return r.re.String()
}

// GoRegexp compiles expr with go's RE2 syntax.
// It is linear in time but rejects lookarounds and backreferences.
func GoRegexp(expr string) (Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re, nil
}
