package validator_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	validator "github.com/CMSgov/price-transparency-guide-validator"
)

func validationError(t *testing.T, schema, doc string) *validator.ValidationError {
	t.Helper()
	g := compileString(t, "http://example.com/s.json", schema)
	err := g.Validate(mustParse(t, doc))
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	return verr
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		doc    string
		want   string
	}{
		{
			name:   "single",
			schema: ratesSchema,
			doc:    `{"billing_code": "1", "negotiated_rate": -1}`,
			want: "jsonschema validation failed with 'http://example.com/s.json#'\n" +
				"  - at '/negotiated_rate': minimum: got -1, want 0",
		},
		{
			name:   "nested",
			schema: `{"allOf": [{"required": ["plan_name"]}]}`,
			doc:    `{}`,
			want: "jsonschema validation failed with 'http://example.com/s.json#'\n" +
				"  - at '': allOf failed, subschema 0 did not match\n" +
				"    - at '': missing property 'plan_name'",
		},
		{
			name:   "through ref",
			schema: `{"definitions": {"code": {"type": "string"}}, "properties": {"billing_code": {"$ref": "#/definitions/code"}}}`,
			doc:    `{"billing_code": 99213}`,
			want: "jsonschema validation failed with 'http://example.com/s.json#'\n" +
				"  - at '/billing_code': got number, want string",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := validationError(t, tt.schema, tt.doc)
			if got := verr.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestValidationError_GoString(t *testing.T) {
	verr := validationError(t, ratesSchema, `{"billing_code": "1", "negotiated_rate": -1}`)
	want := "jsonschema validation failed with 'http://example.com/s.json#'\n" +
		"  - at '/negotiated_rate' [http://example.com/s.json#/properties/negotiated_rate/minimum]: minimum: got -1, want 0"
	if got := fmt.Sprintf("%#v", verr); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBasicOutput(t *testing.T) {
	verr := validationError(t, ratesSchema, `{"billing_code_type": 1, "negotiated_rate": -1}`)
	out := verr.BasicOutput()
	if out.Valid {
		t.Fatal("basic output must be invalid")
	}
	var keywords []string
	for _, u := range out.Errors {
		if len(u.Errors) != 0 {
			t.Errorf("basic output unit %q has nested errors", u.Keyword)
		}
		keywords = append(keywords, u.Keyword)
	}
	if got, want := strings.Join(keywords, ","), "required,type,minimum"; got != want {
		t.Errorf("keywords = %s, want %s", got, want)
	}
	if got := out.Errors[1].InstanceLocation; got != "/billing_code_type" {
		t.Errorf("instanceLocation = %q", got)
	}
}

func TestDetailedOutput(t *testing.T) {
	verr := validationError(t, `{"allOf": [{"required": ["plan_name"]}, {"maxProperties": 1}]}`, `{"a": 1, "b": 2}`)
	out := verr.DetailedOutput()
	if len(out.Errors) != 2 {
		t.Fatalf("got %d units", len(out.Errors))
	}
	first := out.Errors[0]
	if first.Keyword != "allOf" || first.AbsoluteKeywordLocation != "http://example.com/s.json#/allOf" {
		t.Errorf("first = %+v", first)
	}
	if len(first.Errors) != 1 || first.Errors[0].Keyword != "required" {
		t.Fatalf("first.Errors = %+v", first.Errors)
	}
	if got := first.Errors[0].AbsoluteKeywordLocation; got != "http://example.com/s.json#/allOf/0/required" {
		t.Errorf("nested location = %q", got)
	}
	if got := out.Errors[1].Errors[0].Keyword; got != "maxProperties" {
		t.Errorf("second nested keyword = %q", got)
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"valid":false`, `"keyword":"allOf"`, `"instanceLocation":""`, `"error":"missing property 'plan_name'"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("%s does not contain %s", data, want)
		}
	}
}
