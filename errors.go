package strata

import "errors"

var (
	// ErrUnsupportedCodec is returned when decoding a page that declares a
	// codec id unknown to this version of the library. Readers reject
	// unknown ids instead of guessing.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrCorruptPage is returned when a page fails an internal consistency
	// check: size mismatches, invalid level sequences, malformed metadata.
	ErrCorruptPage = errors.New("corrupt page")

	// ErrTruncatedPage is returned when fewer bytes are available than the
	// page declares, which signals upstream storage truncation.
	ErrTruncatedPage = errors.New("truncated page")

	// ErrRowCountMismatch is returned when the rows decoded from a page
	// stream do not add up to the expected column row count.
	ErrRowCountMismatch = errors.New("row count mismatch")
)
