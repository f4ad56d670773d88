// Package harness replays allocator scripts and compares each observed
// outcome with the outcome the script expects.
//
// add and free lines expect success. alloc lines expect success, or
// ErrOutOfSpace when marked "fail". Any other result is a mismatch; the
// allocator's own errors never abort a run.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/joshuapare/rangekit/alloc"
	"github.com/joshuapare/rangekit/internal/script"
)

// ErrInvariant is returned when VerifyEach finds a broken allocator invariant.
var ErrInvariant = errors.New("harness: invariant violation")

// Options controls a replay.
type Options struct {
	// StopOnMismatch ends the run at the first mismatch.
	StopOnMismatch bool

	// VerifyEach runs Allocator.Verify after every op.
	VerifyEach bool

	// Logger receives one debug record per op. nil discards.
	Logger *slog.Logger
}

// Mismatch is an op whose outcome differed from the script's expectation.
type Mismatch struct {
	Index    int             `json:"index"`
	Line     int             `json:"line,omitempty"`
	Op       string          `json:"op"`
	Expected alloc.ErrorKind `json:"expected"`
	Got      alloc.ErrorKind `json:"got"`
	Err      string          `json:"error,omitempty"`
}

func (m Mismatch) String() string {
	where := "op " + strconv.Itoa(m.Index+1)
	if m.Line > 0 {
		where = "line " + strconv.Itoa(m.Line)
	}
	return fmt.Sprintf("%s: %q expected %s, got %s", where, m.Op, m.Expected, m.Got)
}

// Report summarizes a replay.
type Report struct {
	Ops      int           `json:"ops"`
	Executed int           `json:"executed"`
	Counts   script.Counts `json:"counts"`

	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	Mismatches []Mismatch `json:"mismatches"`

	TotalBytes      uint64      `json:"total_bytes"`
	FreeBytes       uint64      `json:"free_bytes"`
	AllocatedBytes  uint64      `json:"allocated_bytes"`
	FreeRanges      int         `json:"free_ranges"`
	LiveAllocations int         `json:"live_allocations"`
	Stats           alloc.Stats `json:"stats"`
}

// OK reports whether every executed op matched its expectation.
func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

// Run replays ops against a. The context is checked between ops.
// The returned report is never nil.
func Run(ctx context.Context, a *alloc.Allocator, ops []script.Op, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rep := &Report{Ops: len(ops), Counts: script.Count(ops), Mismatches: []Mismatch{}}
	defer rep.fill(a)

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		expected, err := apply(a, op)
		if err != nil && alloc.KindOf(err) == alloc.KindOther {
			return rep, fmt.Errorf("harness: op %d: %w", i+1, err)
		}
		got := alloc.KindOf(err)
		rep.Executed++
		if err == nil {
			rep.Succeeded++
		} else {
			rep.Failed++
		}

		log.Debug("op",
			"index", i, "line", script.LineOf(op), "op", script.FormatOp(op),
			"expected", string(expected), "got", string(got))

		if got != expected {
			m := Mismatch{
				Index:    i,
				Line:     script.LineOf(op),
				Op:       script.FormatOp(op),
				Expected: expected,
				Got:      got,
			}
			if err != nil {
				m.Err = err.Error()
			}
			rep.Mismatches = append(rep.Mismatches, m)
			log.Warn("mismatch", "detail", m.String())
		}

		if opts.VerifyEach {
			if verr := a.Verify(); verr != nil {
				return rep, fmt.Errorf("%w: after %s: %w", ErrInvariant, script.FormatOp(op), verr)
			}
		}

		if opts.StopOnMismatch && !rep.OK() {
			break
		}
	}
	return rep, nil
}

// apply runs op and returns the outcome the script expects along with the
// allocator's result.
func apply(a *alloc.Allocator, op script.Op) (alloc.ErrorKind, error) {
	switch o := op.(type) {
	case script.OpAdd:
		return alloc.KindNone, a.AddRegionTagged(o.Base, o.Size, regionTag(o))
	case script.OpAlloc:
		expected := alloc.KindNone
		if o.ExpectFail {
			expected = alloc.KindOutOfSpace
		}
		_, err := a.Allocate(o.ID, o.Size, o.Align)
		return expected, err
	case script.OpFree:
		return alloc.KindNone, a.Free(o.ID)
	}
	return alloc.KindNone, fmt.Errorf("unsupported op %T", op)
}

// regionTag carries a region key that differs from its base into the allocator.
func regionTag(o script.OpAdd) string {
	if o.Key == o.Base {
		return ""
	}
	return "key=" + strconv.FormatUint(o.Key, 10)
}

func (r *Report) fill(a *alloc.Allocator) {
	r.TotalBytes = a.TotalBytes()
	r.FreeBytes = a.FreeBytes()
	r.AllocatedBytes = a.AllocatedBytes()
	r.FreeRanges = a.NumFreeRanges()
	r.LiveAllocations = a.NumAllocations()
	r.Stats = a.Stats()
}
