package butterbrot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encode packs b into native byte order 64-bit words.
func Encode(b Birb) []byte {
	out := make([]byte, len(b)*wordSize)
	for i, v := range b {
		binary.NativeEndian.PutUint64(out[i*wordSize:], v)
	}
	return out
}

// Decode unpacks a birb and checks its declared dimensions.
func Decode(data []byte) (Birb, error) {
	if len(data)%wordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformed, len(data), wordSize)
	}
	b := make(Birb, len(data)/wordSize)
	for i := range b {
		b[i] = binary.NativeEndian.Uint64(data[i*wordSize:])
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeLenient drops a trailing partial word before decoding.
func DecodeLenient(data []byte) (Birb, error) {
	return Decode(data[:len(data)-len(data)%wordSize])
}

// WriteBirb validates b and writes it to w.
func WriteBirb(w io.Writer, b Birb) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := w.Write(Encode(b))
	return err
}

// ReadBirb reads a whole birb from r. A trailing partial word, as left by an
// interrupted copy, is dropped.
func ReadBirb(r io.Reader) (Birb, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read birb: %w", err)
	}
	return DecodeLenient(data)
}
