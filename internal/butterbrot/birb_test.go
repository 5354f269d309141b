package butterbrot

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	b := Birb{2, 2, 42, 420, 4200, 42000}
	data := Encode(b)
	require.Len(t, data, len(b)*wordSize)
	assert.Equal(t, uint64(2), binary.NativeEndian.Uint64(data[:8]))
	assert.Equal(t, uint64(42000), binary.NativeEndian.Uint64(data[40:]))

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode(make([]byte, 7))
	assert.ErrorIs(t, err, ErrMalformed)

	// header says 2x2, only three counters follow
	_, err = Decode(Encode(Birb{2, 2, 1, 2, 3}))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeLenient(t *testing.T) {
	data := append(Encode(Birb{1, 1, 5}), 0xde, 0xad, 0xbe)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrMalformed)

	got, err := DecodeLenient(data)
	require.NoError(t, err)
	assert.Equal(t, Birb{1, 1, 5}, got)
}

func TestWriteReadBirb(t *testing.T) {
	b := NewBirb(3, 2)
	b[4] = 17
	var buf bytes.Buffer
	require.NoError(t, WriteBirb(&buf, b))
	assert.Equal(t, Encode(b), buf.Bytes())

	got, err := ReadBirb(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	assert.ErrorIs(t, WriteBirb(&buf, Birb{3, 3, 1}), ErrMalformed)
}

func TestReadBirbTruncatesPartialWord(t *testing.T) {
	data := append(Encode(Birb{1, 1, 7}), 1, 2, 3)
	got, err := ReadBirb(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Birb{1, 1, 7}, got)

	// the dimensions are still checked
	_, err = ReadBirb(bytes.NewReader(append(Encode(Birb{2, 2, 1}), 9)))
	assert.ErrorIs(t, err, ErrMalformed)
}
