package serializer

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Wire delimiters
const (
	HeaderDelimiter = '#'
	FieldDelimiter  = '|'
	RecordDelimiter = '\n'

	// maxHeaderDigits bounds the length header (fits any int32 length)
	maxHeaderDigits = 10
)

var (
	// ErrIncomplete signals that the buffer ends before the record does
	ErrIncomplete = errors.New("serializer: incomplete frame")
	// ErrMalformedFrame signals a record whose header or length is invalid
	ErrMalformedFrame = errors.New("serializer: malformed frame")
)

// frameSerializerImpl implements IRPCSerializer for the length prefixed text format
//
//	<byteLength>#<field0>|<field1>|...\n
type frameSerializerImpl struct {
	maxFrameBytes int
}

// NewFrameSerializer creates a frame serializer rejecting payloads above maxFrameBytes.
// A non-positive limit disables the check.
func NewFrameSerializer(maxFrameBytes int) IRPCSerializer {
	return &frameSerializerImpl{maxFrameBytes: maxFrameBytes}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s *frameSerializerImpl) Serialize(fields ...string) []byte {
	// a record has at least one field
	if len(fields) == 0 {
		fields = []string{""}
	}

	size := len(fields) // delimiters + record delimiter
	for _, f := range fields {
		size += len(f)
	}
	payloadLen := size - 1

	header := strconv.Itoa(payloadLen)
	buf := make([]byte, 0, len(header)+1+size)
	buf = append(buf, header...)
	buf = append(buf, HeaderDelimiter)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, FieldDelimiter)
		}
		buf = append(buf, f...)
	}
	return append(buf, RecordDelimiter)
}

func (s *frameSerializerImpl) Deserialize(b []byte) ([]string, int, error) {
	// skip empty records between frames
	skipped := 0
	for skipped < len(b) && b[skipped] == RecordDelimiter {
		skipped++
	}
	b = b[skipped:]
	if len(b) == 0 {
		return nil, skipped, ErrIncomplete
	}

	// parse the decimal length header
	headerEnd := bytes.IndexByte(b, HeaderDelimiter)
	if headerEnd < 0 {
		if len(b) > maxHeaderDigits || !isDigits(b) {
			return nil, skipped + resync(b), fmt.Errorf("%w: missing header", ErrMalformedFrame)
		}
		return nil, skipped, ErrIncomplete
	}
	if headerEnd == 0 || headerEnd > maxHeaderDigits || !isDigits(b[:headerEnd]) {
		return nil, skipped + resync(b), fmt.Errorf("%w: invalid header %q", ErrMalformedFrame, b[:headerEnd])
	}

	declared, err := strconv.Atoi(string(b[:headerEnd]))
	if err != nil {
		return nil, skipped + resync(b), fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if s.maxFrameBytes > 0 && declared > s.maxFrameBytes {
		return nil, skipped + resync(b), fmt.Errorf("%w: declared length %d exceeds limit %d", ErrMalformedFrame, declared, s.maxFrameBytes)
	}

	payloadStart := headerEnd + 1
	payloadEnd := payloadStart + declared
	if len(b) < payloadEnd {
		return nil, skipped, ErrIncomplete
	}

	consumed := payloadEnd
	if len(b) > payloadEnd {
		// the declared length must end exactly at a record delimiter
		if b[payloadEnd] != RecordDelimiter {
			return nil, skipped + resync(b), fmt.Errorf("%w: declared length %d does not match payload", ErrMalformedFrame, declared)
		}
		consumed++
	}

	fields := strings.Split(string(b[payloadStart:payloadEnd]), string(FieldDelimiter))
	return fields, skipped + consumed, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// resync returns how many bytes to drop to get past a bad record
func resync(b []byte) int {
	if i := bytes.IndexByte(b, RecordDelimiter); i >= 0 {
		return i + 1
	}
	return len(b)
}

func isDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
