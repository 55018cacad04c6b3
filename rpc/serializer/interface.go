package serializer

// IRPCSerializer converts between field tuples and self-delimited wire records
type IRPCSerializer interface {
	// Serialize joins fields into one record. It is pure and never fails;
	// fields must not contain the field delimiter.
	// A record holds at least one field, so no fields encode like a single empty field.
	Serialize(fields ...string) []byte
	// Deserialize parses the first record in b.
	// It returns the fields, the number of bytes that can be discarded from the
	// front of b, and an error:
	//   - ErrIncomplete when more bytes are needed (consumed may still be > 0
	//     when leading record delimiters were skipped)
	//   - ErrMalformedFrame when the record is invalid; consumed then covers
	//     the bad record so the caller can resynchronize
	Deserialize(b []byte) (fields []string, consumed int, err error)
}
