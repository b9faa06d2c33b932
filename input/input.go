// Package input opens data files for validation.
//
// A file holds either a single json document, or newline delimited
// json records. The format is decided by file extension alone, before
// any byte is read. Files ending with .gz are decompressed on the fly.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// Format is the layout of a data file.
type Format int

const (
	// JSON is a single json document.
	JSON Format = iota

	// NDJSON is one json document per line.
	NDJSON
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case NDJSON:
		return "ndjson"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var extensions = map[string]Format{
	".json":   JSON,
	".ndjson": NDJSON,
	".jsonl":  NDJSON,
}

// DefaultBufferSize is the read buffer size used when Source.BufferSize
// is zero.
const DefaultBufferSize = 64 * 1024

// UnsupportedFileTypeError is returned by Open for a file whose
// extension is unknown or names a format that is not accepted.
type UnsupportedFileTypeError struct {
	Path   string
	Ext    string
	Format *Format // nil if extension is unknown
}

func (e *UnsupportedFileTypeError) Error() string {
	if e.Format == nil {
		return fmt.Sprintf("unsupported file type %q for %s", e.Ext, e.Path)
	}
	return fmt.Sprintf("%s input is not accepted: %s", *e.Format, e.Path)
}

// RecordError is a malformed record of a ndjson file.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Source is a data file whose format is known.
type Source struct {
	Path       string
	Format     Format
	Compressed bool

	// BufferSize is the size of read buffer. Lines of ndjson files
	// may be longer than this.
	BufferSize int

	// MaxDepth limits nesting of arrays and objects in a document.
	// zero means jsonvalue.DefaultMaxDepth.
	MaxDepth int
}

// Open returns Source for file at path. accept lists the formats the
// caller can handle; when empty only JSON is accepted.
//
// The file is not read, or even opened, here. A missing file is
// reported when its records are scanned.
func Open(path string, accept ...Format) (*Source, error) {
	if len(accept) == 0 {
		accept = []Format{JSON}
	}
	name := strings.ToLower(filepath.Base(path))
	compressed := false
	if strings.HasSuffix(name, ".gz") {
		compressed = true
		name = strings.TrimSuffix(name, ".gz")
	}
	ext := filepath.Ext(name)
	f, ok := extensions[ext]
	if !ok {
		return nil, &UnsupportedFileTypeError{Path: path, Ext: ext}
	}
	for _, a := range accept {
		if a == f {
			return &Source{Path: path, Format: f, Compressed: compressed}, nil
		}
	}
	return nil, &UnsupportedFileTypeError{Path: path, Ext: ext, Format: &f}
}

// Records returns a scanner over records of s. Each call reads the file
// again from the start.
func (s *Source) Records() *Scanner {
	return &Scanner{src: s}
}

// Record is a document read from a Source.
type Record struct {
	Line  int // 1-based line where record starts
	Value jsonvalue.Value

	// Err is *RecordError for a malformed ndjson line. Value is
	// zero in that case.
	Err error
}

// Scanner reads records of a Source one at a time.
//
//	sc := src.Records()
//	defer sc.Close()
//	for sc.Scan() {
//		rec := sc.Record()
//		...
//	}
//	if err := sc.Err(); err != nil {
//		...
//	}
type Scanner struct {
	src     *Source
	started bool
	done    bool
	closers []io.Closer
	r       *bufio.Reader
	line    int
	count   int
	rec     Record
	err     error
}

// Scan advances to next record. It returns false at end of input or
// on an error that stops scanning; see Err.
func (sc *Scanner) Scan() bool {
	if sc.done {
		return false
	}
	if !sc.started {
		sc.started = true
		if err := sc.open(); err != nil {
			return sc.fail(err)
		}
	}
	if sc.src.Format == JSON {
		return sc.scanDocument()
	}
	return sc.scanLine()
}

// Record returns the record read by last call to Scan.
func (sc *Scanner) Record() Record {
	return sc.rec
}

// Err returns the error that stopped scanning, if any. Malformed
// ndjson lines do not stop scanning; they are reported in Record.Err.
func (sc *Scanner) Err() error {
	return sc.err
}

// Close releases the file. It is safe to call more than once.
func (sc *Scanner) Close() error {
	var errs []error
	for i := len(sc.closers) - 1; i >= 0; i-- {
		if err := sc.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	sc.closers = nil
	sc.done = true
	return errors.Join(errs...)
}

func (sc *Scanner) open() error {
	f, err := os.Open(sc.src.Path)
	if err != nil {
		return err
	}
	sc.closers = append(sc.closers, f)
	size := sc.src.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	var r io.Reader = bufio.NewReaderSize(f, size)
	if sc.src.Compressed {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("gzip %s: %w", sc.src.Path, err)
		}
		sc.closers = append(sc.closers, zr)
		r = zr
	}
	sc.r = bufio.NewReaderSize(r, size)
	return nil
}

func (sc *Scanner) fail(err error) bool {
	sc.err = err
	sc.done = true
	sc.rec = Record{}
	return false
}

func (sc *Scanner) parseOptions() []jsonvalue.ParseOption {
	if sc.src.MaxDepth > 0 {
		return []jsonvalue.ParseOption{jsonvalue.MaxDepth(sc.src.MaxDepth)}
	}
	return nil
}

func (sc *Scanner) scanDocument() bool {
	data, err := io.ReadAll(sc.r)
	if err != nil {
		return sc.fail(err)
	}
	v, err := jsonvalue.Parse(data, sc.parseOptions()...)
	if err != nil {
		return sc.fail(err)
	}
	sc.done = true
	sc.rec = Record{Line: 1, Value: v}
	return true
}

func (sc *Scanner) scanLine() bool {
	for {
		line, err := sc.r.ReadBytes('\n')
		if len(line) > 0 {
			sc.line++
			line = bytes.TrimRight(line, "\r\n")
			if len(bytes.TrimSpace(line)) > 0 {
				sc.count++
				v, perr := jsonvalue.Parse(line, sc.parseOptions()...)
				if perr != nil {
					sc.rec = Record{Line: sc.line, Err: &RecordError{Line: sc.line, Err: perr}}
				} else {
					sc.rec = Record{Line: sc.line, Value: v}
				}
				if err != nil && err != io.EOF {
					sc.err = err
					sc.done = true
				}
				return true
			}
		}
		if err == io.EOF {
			if sc.count == 0 {
				return sc.fail(&jsonvalue.ParseError{Msg: "no records"})
			}
			sc.done = true
			sc.rec = Record{}
			return false
		}
		if err != nil {
			return sc.fail(err)
		}
	}
}
