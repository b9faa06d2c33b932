package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

var (
	schemas   = filepath.Join("..", "..", "testdata", "schemas")
	dataFiles = filepath.Join("..", "..", "testdata", "data-files")
)

func schema(name string) string { return filepath.Join(schemas, name) }
func data(name string) string   { return filepath.Join(dataFiles, name) }

type invocation struct {
	code   int
	stdout string
	stderr string
}

func run(args ...string) invocation {
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return invocation{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRun_valid(t *testing.T) {
	tests := []struct {
		schema string
		data   string
		flags  []string
	}{
		{"allowed-amounts.json", "allowed-amounts-sample.json", nil},
		{"in-network-rates.json", "in-network-rates-sample.json", nil},
		{"in-network-rates.json", "in-network-rates-sample.json", []string{"--workers", "1", "-b", "16"}},
		{"in-network-rates.json", "in-network-rates-sample.ndjson", []string{"--ndjson"}},
		{"tree.json", "tree.json", nil},
		{"allowed-amounts.json", "allowed-amounts-sample.json", []string{"--regex", "go", "--draft", "2020"}},
	}
	for _, test := range tests {
		args := append(test.flags, schema(test.schema), data(test.data))
		got := run(args...)
		require.Equal(t, ExitValid, got.code, "%v\n%s%s", args, got.stdout, got.stderr)
		require.Equal(t, "Input JSON is valid.\n", got.stdout, "%v", args)
	}
}

func TestRun_invalid(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		data   string
		flags  []string
	}{
		{"borked", "allowed-amounts.json", "allowed-amounts-borked.json", nil},
		{"borked fail fast", "allowed-amounts.json", "allowed-amounts-borked.json", []string{"-f"}},
		{"empty", "allowed-amounts.json", "allowed-amounts-empty.json", nil},
		{"empty permissive schema", "tree.json", "allowed-amounts-empty.json", nil},
		{"ndjson not accepted", "in-network-rates.json", "in-network-rates-sample.ndjson", nil},
		{"wrong schema", "allowed-amounts.json", "in-network-rates-sample.json", nil},
		{"unsupported data type", "tree.json", "tree.yaml", nil},
		{"missing data", "tree.json", "missing.json", nil},
		{"missing schema", "missing.json", "tree.json", nil},
		{"malformed schema", "broken.json", "tree.json", nil},
		{"unresolved reference", "missing-ref.json", "tree.json", nil},
		{"reference cycle", "loop.json", "tree.json", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := append(test.flags, schema(test.schema), data(test.data))
			got := run(args...)
			require.Equal(t, ExitInvalid, got.code, "%s%s", got.stdout, got.stderr)
			require.NotContains(t, got.stdout, "Input JSON is valid.")
		})
	}
}

func TestRun_report(t *testing.T) {
	got := run(schema("allowed-amounts.json"), data("allowed-amounts-borked.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.True(t, strings.HasPrefix(got.stdout, "Input JSON is invalid.\n"))
	for _, s := range []string{
		"Error Name: type\n",
		"Instance: #/last_updated_on\n",
		"Error Name: enum\n",
		"Instance: #/out_of_network/0/billing_code_type\n",
		"Error Name: minimum\n",
		"Error Name: exclusiveMinimum\n",
		"Error Name: dependencies\n",
		"Error Name: then\n",
	} {
		require.Contains(t, got.stdout, s)
	}

	got = run("-f", schema("allowed-amounts.json"), data("allowed-amounts-borked.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.Equal(t, 1, strings.Count(got.stdout, "Error Name:"), got.stdout)
}

func TestRun_referenceCycle(t *testing.T) {
	got := run(schema("loop.json"), data("tree.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stdout, "reference cycle")
}

func TestRun_schemaErrors(t *testing.T) {
	got := run(schema("missing-ref.json"), data("tree.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.Empty(t, got.stdout)
	require.Contains(t, got.stderr, "rates.json")

	got = run(schema("broken.json"), data("tree.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.Empty(t, got.stdout)
}

func TestRun_inputErrors(t *testing.T) {
	got := run(schema("allowed-amounts.json"), data("allowed-amounts-empty.json"))
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stderr, "Input is not a valid JSON")

	got = run(schema("in-network-rates.json"), data("in-network-rates-sample.ndjson"))
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stderr, "ndjson input is not accepted")
	require.Empty(t, got.stdout)

	got = run(schema("tree.json"), data("tree.yaml"))
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stderr, "unsupported file type")
}

func TestRun_ndjsonLines(t *testing.T) {
	got := run("--ndjson", schema("in-network-rates.json"), data("in-network-rates-borked.ndjson"))
	require.Equal(t, ExitInvalid, got.code, got.stderr)
	out := got.stdout
	require.NotContains(t, out, "Line 1\n")
	i2 := strings.Index(out, "Line 2\n")
	i3 := strings.Index(out, "Line 3\n")
	i4 := strings.Index(out, "Line 4\n")
	require.True(t, i2 > 0 && i2 < i3 && i3 < i4, out)
	require.Contains(t, out, "Line 2\nError Name: required\n")
	require.Contains(t, out, "Line 3\nError Name: parse\n")
	require.Contains(t, out, "Line 4\nError Name: type\n")

	for _, workers := range []string{"1", "8"} {
		got = run("--ndjson", "-f", "--workers", workers, schema("in-network-rates.json"), data("in-network-rates-borked.ndjson"))
		require.Equal(t, ExitInvalid, got.code)
		require.Contains(t, got.stdout, "Line 2\n")
		require.NotContains(t, got.stdout, "Line 3\n")
		require.NotContains(t, got.stdout, "Line 4\n")
	}
}

func TestRun_gzip(t *testing.T) {
	raw, err := os.ReadFile(data("in-network-rates-sample.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "in-network-rates-sample.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got := run(schema("in-network-rates.json"), path)
	require.Equal(t, ExitValid, got.code, got.stderr)
	require.Equal(t, Valid, got.stdout)
}

func TestRun_strict(t *testing.T) {
	raw, err := os.ReadFile(data("allowed-amounts-sample.json"))
	require.NoError(t, err)
	doc := strings.Replace(string(raw), `"version": "1.0.0",`, `"version": "1.0.0", "extra": true,`, 1)
	path := filepath.Join(t.TempDir(), "extra.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got := run(schema("allowed-amounts.json"), path)
	require.Equal(t, ExitValid, got.code, got.stdout)

	got = run("--strict", schema("allowed-amounts.json"), path)
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stdout, "Error Name: additionalProperties\n")
}

func TestRun_outputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	got := run("-s", "in-network-rates", schema("in-network-rates.json"), data("in-network-rates-sample.json"), dir)
	require.Equal(t, ExitValid, got.code, got.stderr)
	require.Equal(t, Valid, got.stdout)

	out, err := os.ReadFile(filepath.Join(dir, "output.txt"))
	require.NoError(t, err)
	require.Equal(t, Valid, string(out))

	groups, err := os.ReadFile(filepath.Join(dir, "providerGroups.json"))
	require.NoError(t, err)
	require.Contains(t, string(groups), `"in_network.0.negotiated_rates.1.provider_groups"`)

	refs, err := os.ReadFile(filepath.Join(dir, "providerReferences.json"))
	require.NoError(t, err)
	require.Contains(t, string(refs), `"provider_references.0.location": "https://www.example.org/provider-groups/1.json"`)

	for _, name := range []string{"additionalInfo.json", "negotiatedType.json", "lastUpdated.json"} {
		require.FileExists(t, filepath.Join(dir, name))
	}
	require.NoFileExists(t, filepath.Join(dir, "errors.json"))
}

func TestRun_outputDirInvalid(t *testing.T) {
	dir := t.TempDir()
	got := run(schema("allowed-amounts.json"), data("allowed-amounts-borked.json"), dir)
	require.Equal(t, ExitInvalid, got.code)

	out, err := os.ReadFile(filepath.Join(dir, "output.txt"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "Input JSON is invalid.\n"))
	require.FileExists(t, filepath.Join(dir, "errors.json"))

	file := filepath.Join(dir, "output.txt")
	got = run(schema("tree.json"), data("tree.json"), file)
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stderr, "not a directory")
}

func TestRun_configAndMetrics(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "validator.prom")
	cfg := filepath.Join(dir, "validator.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("ndjson = true\nworkers = 2\n"), 0o644))

	got := run("--config", cfg, "--metrics-file", metricsFile, schema("in-network-rates.json"), data("in-network-rates-borked.ndjson"))
	require.Equal(t, ExitInvalid, got.code, got.stderr)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), "ptg_validator_records_total 4")
	require.Contains(t, string(prom), "ptg_validator_records_malformed_total 1")
	require.Contains(t, string(prom), "ptg_validator_records_invalid_total 2")
}

func TestRun_usage(t *testing.T) {
	got := run()
	require.Equal(t, ExitInvalid, got.code)
	require.Contains(t, got.stderr, "validator [flags] <schema-path> <data-path> [output-path]")

	got = run("a.json", "b.json", "out", "extra")
	require.Equal(t, ExitInvalid, got.code)

	got = run("--bogus", schema("tree.json"), data("tree.json"))
	require.Equal(t, ExitInvalid, got.code)

	got = run("--schema-name", "dental", schema("tree.json"), data("tree.json"))
	require.Equal(t, ExitInvalid, got.code)

	got = run("-h")
	require.Equal(t, ExitValid, got.code)
	require.Contains(t, got.stdout, "--fail-fast")
}

func TestRun_logsToStderr(t *testing.T) {
	got := run("--log-level", "debug", "--log-format", "json", schema("tree.json"), data("tree.json"))
	require.Equal(t, ExitValid, got.code)
	require.Equal(t, Valid, got.stdout)
	require.Contains(t, got.stderr, `"message":"compiled"`)
	require.Contains(t, got.stderr, `"component":"schema"`)
}
