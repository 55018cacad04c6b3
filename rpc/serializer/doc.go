// Package serializer implements the frame codec of the hangman wire protocol.
//
// A record is a tuple of string fields joined by '|', prefixed by the decimal
// byte length of that payload and a '#', and terminated by '\n':
//
//	13#GUESS|ALICE|A\n
//
// The length header makes records self-delimited, so payloads may contain
// newlines (the rules text does). Fields must not contain '|'.
//
// Deserialize never blocks and never allocates more than the fields it
// returns. It reports ErrIncomplete while a record is still arriving and
// ErrMalformedFrame for records whose header is missing, not decimal, above
// the configured limit, or does not end where the declared length says. In
// the malformed case the consumed count covers the bad record up to the next
// '\n', so a stream reader can drop it and continue with the following one.
//
// Thread Safety:
//
//	The serializer is stateless and safe for concurrent use.
package serializer
