package script

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Emit writes ops to w, one per line.
func Emit(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	var line []byte
	for i, op := range ops {
		line = appendOp(line[:0], op)
		if line == nil {
			return fmt.Errorf("script: op %d: unsupported type %T", i, op)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Format renders ops as script text.
func Format(ops []Op) ([]byte, error) {
	var buf bytes.Buffer
	if err := Emit(&buf, ops); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatOp renders a single op without the trailing newline.
func FormatOp(op Op) string {
	line := appendOp(nil, op)
	if len(line) == 0 {
		return fmt.Sprintf("%T", op)
	}
	return string(line[:len(line)-len(LF)])
}

// appendOp appends the text of op to dst. It returns nil for unknown types.
func appendOp(dst []byte, op Op) []byte {
	switch o := op.(type) {
	case OpAdd:
		dst = append(dst, KeywordAdd...)
		dst = appendNum(dst, o.Key)
		dst = appendNum(dst, o.Base)
		dst = appendNum(dst, o.Size)
	case OpAlloc:
		dst = append(dst, KeywordAlloc...)
		dst = appendNum(dst, o.ID)
		dst = appendNum(dst, o.Size)
		dst = appendNum(dst, o.Align)
		if o.ExpectFail {
			dst = append(dst, ' ')
			dst = append(dst, KeywordFail...)
		}
	case OpFree:
		dst = append(dst, KeywordFree...)
		dst = appendNum(dst, o.ID)
	default:
		return nil
	}
	return append(dst, LF...)
}

func appendNum(dst []byte, n uint64) []byte {
	dst = append(dst, ' ')
	return strconv.AppendUint(dst, n, 10)
}
