// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package validator compiles json-schema documents and validates price
transparency files against them.

Drafts 4, 6, 7, 2019-09 and 2020-12 are supported; draft-07 is assumed for
schemas without $schema. Keywords that need dynamic scope ($recursiveRef,
$dynamicRef, unevaluatedProperties and unevaluatedItems) are rejected at
compile time.

An example of using this package:

	c := validator.NewCompiler()
	g, err := c.Compile("schemas/in-network-rates/in-network-rates.json")
	if err != nil {
		return err
	}
	doc, err := jsonvalue.Parse(data)
	if err != nil {
		return err
	}
	if err := g.Validate(doc); err != nil {
		return err
	}

Schemas are loaded from file paths and file urls. $ref values are joined
against the nearest enclosing id. When an id names a web address that
is not loaded, the file with the same name next to the referring
document is tried.

To compile schema from in-memory:

	g, err := validator.Load([]byte(`{"type": "string"}`), "schema.json")

Graph.Evaluate reports every failed keyword as a Violation. Use
Options.Mode FailFast to stop at the first one.

The format keyword is an annotation unless Compiler.AssertFormat is called.
Patterns use ECMAScript syntax through github.com/dlclark/regexp2;
see Compiler.UseRegexpEngine to switch to go regexp.
*/
package validator
