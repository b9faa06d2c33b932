// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validator_test

import (
	"fmt"
	"log"
	"os"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

func Example() {
	g, err := validator.NewCompiler().Compile("testdata/schemas/allowed-amounts.json")
	if err != nil {
		log.Fatal(err)
	}
	data, err := os.ReadFile("testdata/data-files/allowed-amounts-sample.json")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := jsonvalue.Parse(data)
	if err != nil {
		log.Fatal(err)
	}
	if err := g.Validate(doc); err != nil {
		log.Fatalf("%#v", err)
	}
	fmt.Println("valid")
	// Output: valid
}

func ExampleGraph_Evaluate() {
	g, err := validator.Load([]byte(`{
		"type": "object",
		"properties": {
			"billing_code": {"type": "string"},
			"allowed_amount": {"type": "number", "minimum": 0}
		},
		"required": ["billing_code"]
	}`), "http://example.com/amount.json")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := jsonvalue.Parse([]byte(`{"billing_code": 99213, "allowed_amount": -5}`))
	if err != nil {
		log.Fatal(err)
	}
	out := g.Evaluate(doc, validator.Options{})
	for _, v := range out.Errors {
		fmt.Printf("%s %s: %s\n", v.Keyword, v.InstanceLocation, v.Message)
	}
	// Output:
	// type /billing_code: got number, want string
	// minimum /allowed_amount: minimum: got -5, want 0
}

func ExampleLoad_yaml() {
	g, err := validator.Load([]byte("type: string\nenum: [ffs, bundle, capitation]\n"), "arrangement.yaml")
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range []string{"ffs", "fee"} {
		fmt.Println(s, g.Validate(jsonvalue.NewString(s)) == nil)
	}
	// Output:
	// ffs true
	// fee false
}
