package validator_test

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/kind"
)

const ratesSchema = `{
	"required": ["billing_code", "negotiated_rate"],
	"properties": {
		"billing_code_type": {"type": "string"},
		"negotiated_rate": {"minimum": 0}
	}
}`

func compileString(t *testing.T, url, schema string) *validator.Graph {
	t.Helper()
	c := validator.NewCompiler()
	if err := c.AddResource(url, mustParse(t, schema)); err != nil {
		t.Fatal(err)
	}
	g, err := c.Compile(url)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestEvaluate_valid(t *testing.T) {
	g := compileString(t, "http://example.com/rates.json", ratesSchema)
	out := g.Evaluate(mustParse(t, `{"billing_code": "99213", "negotiated_rate": 12.5}`), validator.Options{})
	if !out.Valid || out.Errors != nil || out.Err != nil {
		t.Fatalf("got %+v", out)
	}
}

func TestEvaluate_collectAll(t *testing.T) {
	g := compileString(t, "http://example.com/rates.json", ratesSchema)
	doc := mustParse(t, `{"billing_code_type": 1, "negotiated_rate": -1}`)
	out := g.Evaluate(doc, validator.Options{Mode: validator.CollectAll})
	if out.Valid {
		t.Fatal("want invalid")
	}
	want := []validator.Violation{
		{
			Keyword:          "required",
			InstanceLocation: "",
			KeywordLocation:  "http://example.com/rates.json#/required",
			Message:          "missing properties 'billing_code', 'negotiated_rate'",
		},
		{
			Keyword:          "type",
			InstanceLocation: "/billing_code_type",
			KeywordLocation:  "http://example.com/rates.json#/properties/billing_code_type/type",
			Message:          "got number, want string",
		},
		{
			Keyword:          "minimum",
			InstanceLocation: "/negotiated_rate",
			KeywordLocation:  "http://example.com/rates.json#/properties/negotiated_rate/minimum",
		},
	}
	if len(out.Errors) != len(want) {
		t.Fatalf("got %d violations: %+v", len(out.Errors), out.Errors)
	}
	for i, w := range want {
		got := out.Errors[i]
		if got.Keyword != w.Keyword || got.InstanceLocation != w.InstanceLocation || got.KeywordLocation != w.KeywordLocation {
			t.Errorf("violation %d:\n got %+v\nwant %+v", i, got, w)
		}
		if w.Message != "" && got.Message != w.Message {
			t.Errorf("violation %d: message %q, want %q", i, got.Message, w.Message)
		}
	}
	if out.Err == nil {
		t.Fatal("Err must be set")
	}
	if got := validator.Violations(out.Err); len(got) != len(out.Errors) {
		t.Errorf("Violations(Err) = %d, want %d", len(got), len(out.Errors))
	}
}

func TestEvaluate_failFast(t *testing.T) {
	g := compileString(t, "http://example.com/rates.json", ratesSchema)
	doc := mustParse(t, `{"billing_code_type": 1, "negotiated_rate": -1}`)
	out := g.Evaluate(doc, validator.Options{Mode: validator.FailFast})
	if out.Valid {
		t.Fatal("want invalid")
	}
	if len(out.Errors) != 1 {
		t.Fatalf("got %d violations: %+v", len(out.Errors), out.Errors)
	}
	if out.Errors[0].Keyword != "required" {
		t.Errorf("first violation = %+v", out.Errors[0])
	}
}

func TestEvaluate_arrayOrder(t *testing.T) {
	g := compileString(t, "http://example.com/codes.json", `{"items": {"type": "string"}}`)
	out := g.Evaluate(mustParse(t, `["a", 1, "b", 2, null]`), validator.Options{})
	var got []string
	for _, v := range out.Errors {
		got = append(got, v.InstanceLocation)
	}
	if want := "/1 /3 /4"; strings.Join(got, " ") != want {
		t.Fatalf("instance locations = %q, want %q", got, want)
	}
}

// findOneOf returns the first oneOf failure in the tree of err.
func findOneOf(err error) *kind.OneOf {
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	if k, ok := verr.ErrorKind.(*kind.OneOf); ok {
		return k
	}
	for _, c := range verr.Causes {
		if k := findOneOf(c); k != nil {
			return k
		}
	}
	return nil
}

func TestEvaluate_oneOf(t *testing.T) {
	g := compileString(t, "http://example.com/rate.json", `{
		"oneOf": [
			{"type": "string"},
			{"minimum": 0},
			{"type": "integer"}
		]
	}`)
	tests := []struct {
		name       string
		doc        string
		message    string
		subschemas []int
	}{
		{"none matched", `-1.5`, "oneOf failed, none matched", nil},
		{"two matched", `5`, "oneOf failed, subschemas 1, 2 matched", []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.Evaluate(mustParse(t, tt.doc), validator.Options{})
			if out.Valid {
				t.Fatal("want invalid")
			}
			if v := out.Errors[0]; v.Keyword != "oneOf" || v.Message != tt.message {
				t.Errorf("first violation = %+v, want message %q", v, tt.message)
			}
			k := findOneOf(out.Err)
			if k == nil {
				t.Fatalf("no oneOf failure in %#v", out.Err)
			}
			if !reflect.DeepEqual(k.Subschemas, tt.subschemas) {
				t.Errorf("Subschemas = %v, want %v", k.Subschemas, tt.subschemas)
			}
		})
	}
}

func TestEvaluate_refCycle(t *testing.T) {
	g, err := validator.NewCompiler().Compile("testdata/schemas/loop.json")
	if err != nil {
		t.Fatal(err)
	}
	for _, mode := range []validator.Mode{validator.CollectAll, validator.FailFast} {
		out := g.Evaluate(mustParse(t, `{}`), validator.Options{Mode: mode})
		if out.Valid {
			t.Fatalf("mode %d: want invalid", mode)
		}
		if len(out.Errors) != 1 {
			t.Fatalf("mode %d: got %+v", mode, out.Errors)
		}
		if !strings.Contains(out.Errors[0].Message, "reference cycle") {
			t.Errorf("mode %d: message = %q", mode, out.Errors[0].Message)
		}
		if !strings.Contains(out.Errors[0].KeywordLocation, "loop.json#/definitions/") {
			t.Errorf("mode %d: location = %q", mode, out.Errors[0].KeywordLocation)
		}
	}
}

// recursion through "#" is fine as long as the value gets deeper
func TestEvaluate_recursive(t *testing.T) {
	g, err := validator.NewCompiler().Compile("testdata/schemas/tree.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(readJSON(t, "testdata/data-files/tree.json")); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluate_maxDepth(t *testing.T) {
	g, err := validator.NewCompiler().Compile("testdata/schemas/tree.json")
	if err != nil {
		t.Fatal(err)
	}
	doc := mustParse(t, `{"name": "a", "children": [{"name": "b", "children": [{"name": "c", "children": []}]}]}`)

	out := g.Evaluate(doc, validator.Options{MaxDepth: 3})
	if out.Valid {
		t.Fatal("want depth error")
	}
	if len(out.Errors) != 1 || out.Errors[0].Message != "validation exceeded maximum depth 3" {
		t.Fatalf("got %+v", out.Errors)
	}

	if out := g.Evaluate(doc, validator.Options{}); !out.Valid {
		t.Fatalf("default depth: %+v", out.Errors)
	}
}

func TestEvaluate_concurrent(t *testing.T) {
	g, err := validator.NewCompiler().Compile("testdata/schemas/in-network-rates.json")
	if err != nil {
		t.Fatal(err)
	}
	valid := readJSON(t, "testdata/data-files/in-network-rates-sample.json")
	invalid := mustParse(t, `{"reporting_entity_name": 1}`)
	want := len(g.Evaluate(invalid, validator.Options{}).Errors)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if out := g.Evaluate(valid, validator.Options{}); !out.Valid {
					errs <- "valid document reported invalid"
				}
				return
			}
			if out := g.Evaluate(invalid, validator.Options{}); len(out.Errors) != want {
				errs <- "violation count changed"
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestSchema_Validate(t *testing.T) {
	g := compileString(t, "http://example.com/rates.json", ratesSchema)
	s, ok := g.Lookup("http://example.com/rates.json#/properties/negotiated_rate")
	if !ok {
		t.Fatal("schema not found")
	}
	if err := s.Validate(jsonvalue.NewString("free")); err != nil {
		t.Errorf("minimum ignores strings: %v", err)
	}
	if err := s.Validate(mustParse(t, "-0.01")); err == nil {
		t.Error("want error for negative rate")
	}
}

func TestBooleanSchema(t *testing.T) {
	g := compileString(t, "http://example.com/false.json", `false`)
	out := g.Evaluate(mustParse(t, `{}`), validator.Options{})
	if out.Valid || len(out.Errors) != 1 || out.Errors[0].Message != "false schema" {
		t.Fatalf("got %+v", out)
	}
	g = compileString(t, "http://example.com/true.json", `true`)
	if out := g.Evaluate(mustParse(t, `[1, {}]`), validator.Options{}); !out.Valid {
		t.Fatalf("got %+v", out)
	}
}

func TestEvaluate_repeatableAndRoundTrip(t *testing.T) {
	g, err := validator.NewCompiler().Compile("testdata/schemas/allowed-amounts.json")
	if err != nil {
		t.Fatal(err)
	}
	doc := readJSON(t, "testdata/data-files/allowed-amounts-borked.json")
	first := g.Evaluate(doc, validator.Options{})
	if first.Valid {
		t.Fatal("want invalid")
	}
	reparsed, err := jsonvalue.Parse(jsonvalue.Marshal(doc))
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range map[string]validator.Outcome{
		"again":    g.Evaluate(doc, validator.Options{}),
		"reparsed": g.Evaluate(reparsed, validator.Options{}),
	} {
		if out.Valid != first.Valid || len(out.Errors) != len(first.Errors) {
			t.Fatalf("%s: got %d violations, want %d", name, len(out.Errors), len(first.Errors))
		}
		for i := range out.Errors {
			if out.Errors[i] != first.Errors[i] {
				t.Errorf("%s: violation %d:\n got %+v\nwant %+v", name, i, out.Errors[i], first.Errors[i])
			}
		}
	}
}
