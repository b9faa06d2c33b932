package validator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// suite files follow layout of JSON-Schema-Test-Suite: an array of
// groups, each with description, schema and tests.
func testFile(t *testing.T, fpath string, draft *validator.Draft) {
	t.Log("FILE:", fpath)
	data, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	groups, err := jsonvalue.Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	url := "http://testsuites.com/schema.json"
	for _, group := range groups.Items() {
		desc, _ := group.Get("description")
		t.Log(desc.Str())

		schema, _ := group.Get("schema")
		c := validator.NewCompiler()
		c.DefaultDraft(draft)
		if v, ok := group.Get("assertFormat"); ok && v.Bool() {
			c.AssertFormat()
		}
		if err := c.AddResource(url, schema); err != nil {
			t.Fatalf("add resource failed: %v", err)
		}
		g, err := c.Compile(url)
		if err != nil {
			t.Fatalf("schema compilation failed: %v", err)
		}

		tests, _ := group.Get("tests")
		for _, test := range tests.Items() {
			desc, _ := test.Get("description")
			instance, _ := test.Get("data")
			valid, _ := test.Get("valid")
			t.Logf("    %s", desc.Str())

			var counts []int
			for _, mode := range []validator.Mode{validator.CollectAll, validator.FailFast} {
				out := g.Evaluate(instance, validator.Options{Mode: mode})
				if out.Valid != valid.Bool() {
					t.Errorf("%s: mode %d: got valid=%v, want %v", desc.Str(), mode, out.Valid, valid.Bool())
					if out.Err != nil {
						t.Logf("%#v", out.Err)
					}
				}
				if !out.Valid && len(out.Errors) == 0 {
					t.Errorf("%s: invalid without violations", desc.Str())
				}
				counts = append(counts, len(out.Errors))
			}
			if counts[1] > counts[0] {
				t.Errorf("%s: fail fast reported %d violations, collect all %d", desc.Str(), counts[1], counts[0])
			}
		}
	}
}

func testFolder(t *testing.T, folder string, draft *validator.Draft) {
	files, err := filepath.Glob(filepath.Join("testdata", "suite", folder, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatalf("no suite files in %s", folder)
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		t.Run(name, func(t *testing.T) {
			testFile(t, file, draft)
		})
	}
}

func TestDraft4(t *testing.T) {
	testFolder(t, "draft4", validator.Draft4)
}

func TestDraft6(t *testing.T) {
	testFolder(t, "draft6", validator.Draft6)
}

func TestDraft7(t *testing.T) {
	testFolder(t, "draft7", validator.Draft7)
}

func TestDraft2019(t *testing.T) {
	testFolder(t, "draft2019-09", validator.Draft2019)
}

func TestDraft2020(t *testing.T) {
	testFolder(t, "draft2020-12", validator.Draft2020)
}
