package serializer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	s := NewFrameSerializer(0)

	tests := []struct {
		fields []string
		want   string
	}{
		{[]string{"START"}, "5#START\n"},
		{[]string{"GUESS", "ALICE", "A"}, "13#GUESS|ALICE|A\n"},
		{[]string{"STATE", "_ _ _", "3", "false", "", "3"}, "22#STATE|_ _ _|3|false||3\n"},
		{[]string{"RULES", "line one\nline two"}, "23#RULES|line one\nline two\n"},
		{[]string{"USER", "Zoë"}, "9#USER|Zoë\n"},
		{nil, "0#\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.fields, "|"), func(t *testing.T) {
			assert.Equal(t, tt.want, string(s.Serialize(tt.fields...)))
		})
	}
}

func TestSerialize_NoFieldsIsOneEmptyField(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)
	assert.Equal(t, s.Serialize(""), s.Serialize())

	fields, consumed, err := s.Deserialize(s.Serialize())
	require.NoError(t, err)
	assert.Equal(t, []string{""}, fields)
	assert.Equal(t, 3, consumed)
}

func TestRoundTrip(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)

	inputs := [][]string{
		{"START"},
		{"GUESS", "A"},
		{"GUESS", "ALICE", "A"},
		{"STATE", "_ A _", "3", "false", "[A]", "3"},
		{"RULES", "multi\nline\ntext"},
		{"USER", "", ""},
		{"SCORE", "-1"},
	}

	for _, fields := range inputs {
		encoded := s.Serialize(fields...)

		got, consumed, err := s.Deserialize(encoded)
		require.NoError(t, err)
		assert.Equal(t, fields, got)
		assert.Equal(t, len(encoded), consumed)
	}
}

// testFrameLimit mirrors the default max frame size
const testFrameLimit = 64 * 1024

func TestDeserialize_MultipleFramesInOneBuffer(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)

	var buf []byte
	buf = append(buf, s.Serialize("START", "ALICE")...)
	buf = append(buf, s.Serialize("STATE", "_ _ _", "3", "false", "", "3")...)
	buf = append(buf, s.Serialize("RUNNING")...)

	var got [][]string
	for len(buf) > 0 {
		fields, consumed, err := s.Deserialize(buf)
		require.NoError(t, err)
		got = append(got, fields)
		buf = buf[consumed:]
	}

	require.Len(t, got, 3)
	assert.Equal(t, []string{"START", "ALICE"}, got[0])
	assert.Equal(t, "STATE", got[1][0])
	assert.Equal(t, []string{"RUNNING"}, got[2])
}

func TestDeserialize_Incomplete(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)
	full := s.Serialize("GUESS", "ALICE", "CAT")

	// every strict prefix up to the end of the payload is incomplete
	for i := 0; i < len(full)-1; i++ {
		_, consumed, err := s.Deserialize(full[:i])
		assert.ErrorIs(t, err, ErrIncomplete, "prefix %q", full[:i])
		assert.Equal(t, 0, consumed)
	}

	// the record delimiter is optional at the end of the buffer
	fields, consumed, err := s.Deserialize(full[:len(full)-1])
	require.NoError(t, err)
	assert.Equal(t, []string{"GUESS", "ALICE", "CAT"}, fields)
	assert.Equal(t, len(full)-1, consumed)
}

func TestDeserialize_SkipsEmptyRecords(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)

	fields, consumed, err := s.Deserialize([]byte("\n\n5#START\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"START"}, fields)
	assert.Equal(t, 10, consumed)

	_, consumed, err = s.Deserialize([]byte("\n\n"))
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 2, consumed)
}

func TestDeserialize_Malformed(t *testing.T) {
	s := NewFrameSerializer(16)

	tests := []struct {
		name         string
		input        string
		wantConsumed int
	}{
		{"no header digits", "START\n5#START\n", 6},
		{"empty header", "#START\n", 7},
		{"non digit header", "5x#START\n", 9},
		{"length too short", "3#START\n5#SCORE\n", 8},
		{"length too long", "7#START\n5#SCORE\n", 8},
		{"header too long", "12345678901#X\n", 14},
		{"above frame limit", "17#" + strings.Repeat("A", 17) + "\n", 21},
		{"garbage without delimiter", "hello", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, consumed, err := s.Deserialize([]byte(tt.input))
			assert.ErrorIs(t, err, ErrMalformedFrame)
			assert.Equal(t, tt.wantConsumed, consumed)
		})
	}
}

func TestDeserialize_ResyncAfterMalformed(t *testing.T) {
	s := NewFrameSerializer(testFrameLimit)
	buf := []byte("9#START\n5#SCORE\n")

	_, consumed, err := s.Deserialize(buf)
	require.ErrorIs(t, err, ErrMalformedFrame)

	fields, _, err := s.Deserialize(buf[consumed:])
	require.NoError(t, err)
	assert.Equal(t, []string{"SCORE"}, fields)
}

func BenchmarkSerialize(b *testing.B) {
	s := NewFrameSerializer(testFrameLimit)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Serialize("STATE", "_ A _ _ E _", "4", "false", "[A, E, X]", "6")
	}
}

func BenchmarkDeserialize(b *testing.B) {
	s := NewFrameSerializer(testFrameLimit)
	frame := s.Serialize("STATE", "_ A _ _ E _", "4", "false", "[A, E, X]", "6")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Deserialize(frame); err != nil {
			b.Fatal(err)
		}
	}
}
