package script

const (
	// ============================================================================
	// Op Keywords
	// ============================================================================

	// KeywordAdd registers a region: add <key> <base> <size>
	KeywordAdd = "add"

	// KeywordAlloc requests an allocation: alloc <id> <size> <alignment> [fail]
	KeywordAlloc = "alloc"

	// KeywordFree releases an allocation: free <id>
	KeywordFree = "free"

	// KeywordFail marks an alloc line that is expected to run out of space
	KeywordFail = "fail"

	// ============================================================================
	// Structural Tokens
	// ============================================================================

	// CommentPrefix marks a comment line
	CommentPrefix = "#"

	// LF terminates every emitted line
	LF = "\n"

	// CR is stripped from the end of input lines
	CR = "\r"

	// ============================================================================
	// Input Encodings
	// ============================================================================

	// EncodingUTF8 is the default input encoding
	EncodingUTF8 = "UTF-8"

	// EncodingUTF16LE is little-endian UTF-16 without a BOM
	EncodingUTF16LE = "UTF-16LE"

	// EncodingUTF16BE is big-endian UTF-16 without a BOM
	EncodingUTF16BE = "UTF-16BE"
)

// Field counts per op, keyword included.
const (
	addFields       = 4
	allocFields     = 4
	allocFailFields = 5
	freeFields      = 2
)
