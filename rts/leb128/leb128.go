// Package leb128 implements the variable-length integer encoding used by
// the Aril wire format: 7 data bits per byte, least-significant group first,
// high bit set on every byte except the last.
//
// Encoders write into a caller-supplied buffer and return the number of
// bytes written; the buffer must hold at least MaxLen32 (or MaxLen64) bytes.
// This matches the runtime-system contract, where generated code reserves
// the maximum-width scratch space up front and never allocates on the
// encoding path.
package leb128

import (
	"errors"
	"io"
)

// MaxLen32 is the maximum encoded length of a 32-bit value.
const MaxLen32 = 5

// MaxLen64 is the maximum encoded length of a 64-bit value.
const MaxLen64 = 10

// ErrOverflow is returned when a decoded value exceeds the target width
// without terminating.
var ErrOverflow = errors.New("leb128: overflow")

// ErrTruncated is returned when the input ends before the encoding
// terminates.
var ErrTruncated = errors.New("leb128: truncated input")

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// EncodeU32 writes the unsigned encoding of n into buf and returns the
// number of bytes written. Encodings are minimal: no encoding ends in a
// zero byte preceded by a continuation byte, and 0 encodes as one byte.
func EncodeU32(buf []byte, n uint32) int {
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf[i] = b
		i++
		if n == 0 {
			return i
		}
	}
}

// EncodeU64 writes the unsigned encoding of n into buf and returns the
// number of bytes written.
func EncodeU64(buf []byte, n uint64) int {
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		buf[i] = b
		i++
		if n == 0 {
			return i
		}
	}
}

// EncodeS32 writes the signed (sign-extending) encoding of n into buf and
// returns the number of bytes written. The encoding terminates at the first
// group whose top data bit already matches the sign of the remaining value,
// so small magnitudes of either sign take one byte.
func EncodeS32(buf []byte, n int32) int {
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			buf[i] = b
			return i + 1
		}
		buf[i] = b | 0x80
		i++
	}
}

// EncodeS64 writes the signed encoding of n into buf and returns the number
// of bytes written.
func EncodeS64(buf []byte, n int64) int {
	i := 0
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			buf[i] = b
			return i + 1
		}
		buf[i] = b | 0x80
		i++
	}
}

// AppendU32 appends the unsigned encoding of n to dst.
func AppendU32(dst []byte, n uint32) []byte {
	var buf [MaxLen32]byte
	return append(dst, buf[:EncodeU32(buf[:], n)]...)
}

// AppendU64 appends the unsigned encoding of n to dst.
func AppendU64(dst []byte, n uint64) []byte {
	var buf [MaxLen64]byte
	return append(dst, buf[:EncodeU64(buf[:], n)]...)
}

// AppendS32 appends the signed encoding of n to dst.
func AppendS32(dst []byte, n int32) []byte {
	var buf [MaxLen32]byte
	return append(dst, buf[:EncodeS32(buf[:], n)]...)
}

// AppendS64 appends the signed encoding of n to dst.
func AppendS64(dst []byte, n int64) []byte {
	var buf [MaxLen64]byte
	return append(dst, buf[:EncodeS64(buf[:], n)]...)
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// DecodeU32 decodes an unsigned value from the front of buf. It returns the
// value and the number of bytes consumed. Decoding fails with ErrTruncated
// if buf ends before the encoding terminates, and with ErrOverflow if the
// encoding does not terminate within the 32-bit width.
func DecodeU32(buf []byte) (uint32, int, error) {
	var result uint32
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if shift == 28 && b&0x7f > 0x0f {
			return 0, 0, ErrOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, ErrOverflow
		}
	}
	return 0, 0, ErrTruncated
}

// DecodeU64 decodes an unsigned 64-bit value from the front of buf.
func DecodeU64(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if shift == 63 && b&0x7f > 0x01 {
			return 0, 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= 70 {
			return 0, 0, ErrOverflow
		}
	}
	return 0, 0, ErrTruncated
}

// s32Fits reports whether a fifth encoded group fits a 32-bit signed
// target: the data bits past bit 31 must all equal the value's sign bit
// (data bit 3 of the group).
func s32Fits(b byte) bool {
	if b&0x08 == 0 {
		return b&0x70 == 0
	}
	return b&0x70 == 0x70
}

// s64Fits reports whether a tenth encoded group fits a 64-bit signed
// target: the data bits past bit 63 must all equal the value's sign bit
// (data bit 0 of the group).
func s64Fits(b byte) bool {
	if b&0x01 == 0 {
		return b&0x7e == 0
	}
	return b&0x7e == 0x7e
}

// DecodeS32 decodes a signed value from the front of buf.
func DecodeS32(buf []byte) (int32, int, error) {
	var result int32
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if shift == 28 && !s32Fits(b) {
			return 0, 0, ErrOverflow
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				result |= ^int32(0) << shift
			}
			return result, i + 1, nil
		}
		if shift >= 35 {
			return 0, 0, ErrOverflow
		}
	}
	return 0, 0, ErrTruncated
}

// DecodeS64 decodes a signed 64-bit value from the front of buf.
func DecodeS64(buf []byte) (int64, int, error) {
	var result int64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if shift == 63 && !s64Fits(b) {
			return 0, 0, ErrOverflow
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= ^int64(0) << shift
			}
			return result, i + 1, nil
		}
		if shift >= 70 {
			return 0, 0, ErrOverflow
		}
	}
	return 0, 0, ErrTruncated
}

// ---------------------------------------------------------------------------
// Stream decoding
// ---------------------------------------------------------------------------

// ReadU32 decodes an unsigned value from r. An io.EOF before the encoding
// terminates is reported as ErrTruncated.
func ReadU32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		if shift == 28 && b&0x7f > 0x0f {
			return 0, ErrOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, ErrOverflow
		}
	}
}

// ReadU64 decodes an unsigned 64-bit value from r.
func ReadU64(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		if shift == 63 && b&0x7f > 0x01 {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 70 {
			return 0, ErrOverflow
		}
	}
}

// ReadS32 decodes a signed value from r.
func ReadS32(r io.ByteReader) (int32, error) {
	var result int32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		if shift == 28 && !s32Fits(b) {
			return 0, ErrOverflow
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				result |= ^int32(0) << shift
			}
			return result, nil
		}
		if shift >= 35 {
			return 0, ErrOverflow
		}
	}
}

// ReadS64 decodes a signed 64-bit value from r.
func ReadS64(r io.ByteReader) (int64, error) {
	var result int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}
		if shift == 63 && !s64Fits(b) {
			return 0, ErrOverflow
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= ^int64(0) << shift
			}
			return result, nil
		}
		if shift >= 70 {
			return 0, ErrOverflow
		}
	}
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
