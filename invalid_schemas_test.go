package validator_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

func TestInvalidSchemas(t *testing.T) {
	data, err := os.ReadFile("testdata/invalid_schemas.json")
	if err != nil {
		t.Fatal(err)
	}
	cases, err := jsonvalue.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range cases.Items() {
		desc, _ := tc.Get("description")
		t.Run(desc.Str(), func(t *testing.T) {
			schema, _ := tc.Get("schema")
			url := "http://invalid.com/schema.json"
			c := validator.NewCompiler()
			if err := c.AddResource(url, schema); err != nil {
				t.Fatal(err)
			}
			g, err := c.Compile(url)
			if err == nil {
				t.Fatalf("want error, got graph with %d schemas", g.Len())
			}
			var serr *validator.SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("got %T, want *SchemaError", err)
			}
			want, _ := tc.Get("errors")
			for _, w := range want.Items() {
				if !strings.Contains(err.Error(), w.Str()) {
					t.Errorf("error %q does not contain %q", err, w.Str())
				}
			}
		})
	}
}
