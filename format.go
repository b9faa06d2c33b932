package validator

import (
	"github.com/CMSgov/price-transparency-guide-validator/formats"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// Format defined specific format.
type Format struct {
	Name string

	// Validate checks if given value is of this format.
	Validate func(v jsonvalue.Value) error
}

// stringFormat adapts string checker, values other than strings are
// always valid.
func stringFormat(name string, check formats.Checker) *Format {
	return &Format{
		Name: name,
		Validate: func(v jsonvalue.Value) error {
			if v.Kind() != jsonvalue.KindString {
				return nil
			}
			return check(v.Str())
		},
	}
}

func regexFormat(engine RegexpEngine) *Format {
	return &Format{
		Name: "regex",
		Validate: func(v jsonvalue.Value) error {
			if v.Kind() != jsonvalue.KindString {
				return nil
			}
			_, err := engine(v.Str())
			return err
		},
	}
}

// lookupFormat returns the format registered with compiler or
// with package formats. nil means unknown format.
func (c *Compiler) lookupFormat(name string) *Format {
	if f, ok := c.formats[name]; ok {
		return f
	}
	if name == "regex" {
		return regexFormat(c.regexpEngine)
	}
	if check, ok := formats.Get(name); ok {
		return stringFormat(name, check)
	}
	return nil
}
