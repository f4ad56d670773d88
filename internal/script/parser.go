package script

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/rangekit/internal/mmfile"
)

var (
	// ErrUnknownOp indicates a line that starts with an unknown keyword.
	ErrUnknownOp = errors.New("script: unknown op")

	// ErrFieldCount indicates a line with the wrong number of fields.
	ErrFieldCount = errors.New("script: wrong number of fields")

	// ErrBadNumber indicates a field that is not a base-10 unsigned integer.
	ErrBadNumber = errors.New("script: bad number")

	// ErrBadTrailer indicates an alloc line whose fifth field is not "fail".
	ErrBadTrailer = errors.New("script: expected \"fail\"")
)

// ParseError reports the line a parse failure happened on.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("script: line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options controls parsing.
type Options struct {
	// InputEncoding is used when the input has no byte order mark.
	// Empty means UTF-8.
	InputEncoding string
}

// Parse reads a UTF-8 script from r.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		op, err := parseLine(scanner.Text(), lineNo)
		if err != nil {
			return nil, err
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// ParseBytes decodes data per opts and parses it.
func ParseBytes(data []byte, opts Options) ([]Op, error) {
	text, err := decodeInput(data, opts.InputEncoding)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(text))
}

// ParseFile maps the file at path and parses it.
func ParseFile(path string, opts Options) ([]Op, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}
	defer release() //nolint:errcheck // read-only mapping

	ops, err := ParseBytes(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

// parseLine parses a single line. Blank and comment lines yield a nil op.
func parseLine(line string, lineNo int) (Op, error) {
	trim := strings.TrimSpace(strings.TrimRight(line, CR))
	if trim == "" || strings.HasPrefix(trim, CommentPrefix) {
		return nil, nil
	}
	fields := strings.Fields(trim)
	fail := func(err error) (Op, error) {
		return nil, &ParseError{Line: lineNo, Text: trim, Err: err}
	}

	switch fields[0] {
	case KeywordAdd:
		if len(fields) != addFields {
			return fail(ErrFieldCount)
		}
		nums, err := parseNumbers(fields[1:])
		if err != nil {
			return fail(err)
		}
		return OpAdd{Key: nums[0], Base: nums[1], Size: nums[2], Line: lineNo}, nil

	case KeywordAlloc:
		if len(fields) != allocFields && len(fields) != allocFailFields {
			return fail(ErrFieldCount)
		}
		nums, err := parseNumbers(fields[1:allocFields])
		if err != nil {
			return fail(err)
		}
		op := OpAlloc{ID: nums[0], Size: nums[1], Align: nums[2], Line: lineNo}
		if len(fields) == allocFailFields {
			if fields[4] != KeywordFail {
				return fail(ErrBadTrailer)
			}
			op.ExpectFail = true
		}
		return op, nil

	case KeywordFree:
		if len(fields) != freeFields {
			return fail(ErrFieldCount)
		}
		nums, err := parseNumbers(fields[1:])
		if err != nil {
			return fail(err)
		}
		return OpFree{ID: nums[0], Line: lineNo}, nil
	}
	return fail(ErrUnknownOp)
}

func parseNumbers(fields []string) ([]uint64, error) {
	out := make([]uint64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadNumber, f)
		}
		out[i] = n
	}
	return out, nil
}
