// Package wire provides big-endian binary encoding and decoding utilities
// for reading and writing PNG file data.
//
// PNG uses network (big-endian) byte order for all multi-byte values
// throughout the file format. This package provides efficient,
// bounds-checked readers and writers for the primitive types used in
// PNG chunks and chunk payloads.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	// ErrShortBuffer is returned when a read or write operation cannot complete
	// because there isn't enough data or space in the buffer.
	ErrShortBuffer = errors.New("wire: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("wire: negative size")
)

// ByteOrder is the byte order used by PNG files.
var ByteOrder = binary.BigEndian

// Reader provides efficient big-endian binary reading from a byte slice.
// It maintains a read position and provides bounds checking on all operations.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader from a byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, pos: 0}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Reset resets the reader to the beginning of the data.
func (r *Reader) Reset() {
	r.pos = 0
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	result := make([]byte, n)
	copy(result, r.data[r.pos:r.pos+n])
	r.pos += n
	return result, nil
}

// Rest returns all unread bytes as a new slice and consumes them.
func (r *Reader) Rest() []byte {
	result := make([]byte, r.Len())
	copy(result, r.data[r.pos:])
	r.pos = len(r.data)
	return result
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

// ReadUint16 reads an unsigned 16-bit integer in big-endian order.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer in big-endian order.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadString reads a null-terminated string.
// The null terminator is consumed but not included in the result.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++ // Skip the null terminator
			return s, nil
		}
		r.pos++
	}
	// Reset position on failure
	r.pos = start
	return "", ErrShortBuffer
}

// BufferWriter provides a growing buffer for writing binary data.
// It automatically expands to accommodate writes.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written data as a byte slice.
// The returned slice is valid until the next write operation.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// Reset clears the buffer.
func (w *BufferWriter) Reset() {
	w.buf = w.buf[:0]
}

// WriteByte writes a single byte.
func (w *BufferWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes writes a byte slice.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *BufferWriter) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16 writes an unsigned 16-bit integer in big-endian order.
func (w *BufferWriter) WriteUint16(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// WriteUint32 writes an unsigned 32-bit integer in big-endian order.
func (w *BufferWriter) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteString writes a null-terminated string.
func (w *BufferWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// StreamReader wraps an io.Reader for big-endian binary reading.
type StreamReader struct {
	r   io.Reader
	n   int64
	buf [8]byte
}

// NewStreamReader creates a StreamReader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// Offset returns the number of bytes consumed from the underlying reader.
func (r *StreamReader) Offset() int64 {
	return r.n
}

// ReadByte reads a single byte.
func (r *StreamReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:1])
	if err == nil {
		r.n++
	}
	return r.buf[0], err
}

// ReadBytes reads n bytes into a new slice.
func (r *StreamReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	result := make([]byte, n)
	m, err := io.ReadFull(r.r, result)
	r.n += int64(m)
	return result, err
}

// ReadBytesInto reads bytes into the provided slice.
func (r *StreamReader) ReadBytesInto(dst []byte) error {
	m, err := io.ReadFull(r.r, dst)
	r.n += int64(m)
	return err
}

// ReadUint32 reads an unsigned 32-bit integer in big-endian order.
func (r *StreamReader) ReadUint32() (uint32, error) {
	_, err := io.ReadFull(r.r, r.buf[:4])
	if err != nil {
		return 0, err
	}
	r.n += 4
	return ByteOrder.Uint32(r.buf[:4]), nil
}

// StreamWriter wraps an io.Writer for big-endian binary writing.
type StreamWriter struct {
	w   io.Writer
	buf [8]byte
}

// NewStreamWriter creates a StreamWriter from an io.Writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteByte writes a single byte.
func (w *StreamWriter) WriteByte(b byte) error {
	w.buf[0] = b
	_, err := w.w.Write(w.buf[:1])
	return err
}

// WriteBytes writes a byte slice.
func (w *StreamWriter) WriteBytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// WriteUint32 writes an unsigned 32-bit integer in big-endian order.
func (w *StreamWriter) WriteUint32(v uint32) error {
	ByteOrder.PutUint32(w.buf[:4], v)
	_, err := w.w.Write(w.buf[:4])
	return err
}
