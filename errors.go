package screenpack

import (
	"fmt"
	"strings"
)

// Kind classifies an Error
type Kind int

const (
	// KindIO is a failure reading or writing files
	KindIO Kind = iota
	// KindValidation is a rejected set of input images
	KindValidation
	// KindEncode is a source image that could not be loaded or encoded
	KindEncode
	// KindDecode is a table entry that could not be decoded or written
	KindDecode
	// KindSize is a blob that exceeded the maximum size
	KindSize
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o"
	case KindValidation:
		return "validation"
	case KindEncode:
		return "encode"
	case KindDecode:
		return "decode"
	case KindSize:
		return "size"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const noID = -1

// Error is returned by Pack and Unpack, either directly or, for Unpack,
// collected in a *multierror.Error.
type Error struct {
	Op   string
	Kind Kind
	Path string

	// ID is the image identifier, or -1 when the error isn't about a
	// single image
	ID     int
	Offset int64

	// Expected and Actual hold sizes for KindSize errors
	Expected int64
	Actual   int64

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Op, e.Kind)
	if e.ID != noID {
		fmt.Fprintf(&b, " image %d", e.ID)
	}
	if e.Kind == KindDecode {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
