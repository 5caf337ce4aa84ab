package png

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/mrjoshuak/go-png/internal/wire"
)

func TestTagProperties(t *testing.T) {
	tests := []struct {
		tag        string
		ancillary  bool
		private    bool
		safeToCopy bool
	}{
		{"IHDR", false, false, false},
		{"PLTE", false, false, false},
		{"IDAT", false, false, false},
		{"gAMA", true, false, false},
		{"tEXt", true, false, true},
		{"pHYs", true, false, true},
		{"prVt", true, true, true},
	}
	for _, tt := range tests {
		if got := Ancillary(tt.tag); got != tt.ancillary {
			t.Errorf("Ancillary(%q) = %v, want %v", tt.tag, got, tt.ancillary)
		}
		if got := Private(tt.tag); got != tt.private {
			t.Errorf("Private(%q) = %v, want %v", tt.tag, got, tt.private)
		}
		if got := SafeToCopy(tt.tag); got != tt.safeToCopy {
			t.Errorf("SafeToCopy(%q) = %v, want %v", tt.tag, got, tt.safeToCopy)
		}
	}
}

func TestValidTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"IHDR", true},
		{"tEXt", true},
		{"IHD", false},
		{"IHDRX", false},
		{"IH1R", false},
		{"IH R", false},
		{"IH\x00R", false},
	}
	for _, tt := range tests {
		if got := validTag(tt.tag); got != tt.want {
			t.Errorf("validTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

// chunkBytes serializes one chunk through the writer.
func chunkBytes(t *testing.T, tag string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := writeChunk(wire.NewStreamWriter(&buf), tag, data); err != nil {
		t.Fatalf("writeChunk: %v", err)
	}
	return buf.Bytes()
}

func TestChunkRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	raw := chunkBytes(t, "tEXt", payload)

	c, err := readChunk(wire.NewStreamReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("readChunk: %v", err)
	}
	if c.Tag != "tEXt" {
		t.Errorf("tag = %q, want tEXt", c.Tag)
	}
	if !bytes.Equal(c.Data, payload) {
		t.Errorf("data = %v, want %v", c.Data, payload)
	}
}

func TestChunkCRCMismatch(t *testing.T) {
	raw := chunkBytes(t, "tEXt", []byte("keyword\x00value"))

	// Flip one payload bit; the CRC no longer matches.
	raw[10] ^= 0x01
	_, err := readChunk(wire.NewStreamReader(bytes.NewReader(raw)))
	if !errors.Is(err, ErrFraming) {
		t.Errorf("corrupted payload: err = %v, want ErrFraming", err)
	}
}

func TestChunkTruncated(t *testing.T) {
	raw := chunkBytes(t, "gAMA", []byte{0, 0, 0xB1, 0x8F})

	// An empty stream is a clean boundary; every other proper prefix
	// must fail as a framing error.
	if _, err := readChunk(wire.NewStreamReader(bytes.NewReader(nil))); err != io.EOF {
		t.Errorf("empty stream: err = %v, want io.EOF", err)
	}
	for n := 1; n < len(raw); n++ {
		_, err := readChunk(wire.NewStreamReader(bytes.NewReader(raw[:n])))
		if !errors.Is(err, ErrFraming) {
			t.Errorf("prefix %d: err = %v, want ErrFraming", n, err)
		}
	}
}

func TestChunkBadTag(t *testing.T) {
	raw := chunkBytes(t, "gAMA", []byte{0, 0, 0xB1, 0x8F})
	raw[4] = '1' // first tag byte

	_, err := readChunk(wire.NewStreamReader(bytes.NewReader(raw)))
	if !errors.Is(err, ErrFraming) {
		t.Errorf("bad tag byte: err = %v, want ErrFraming", err)
	}
}

func TestChunkLengthLimit(t *testing.T) {
	var buf bytes.Buffer
	sw := wire.NewStreamWriter(&buf)
	sw.WriteUint32(0x80000000)
	sw.WriteBytes([]byte("IDAT"))

	_, err := readChunk(wire.NewStreamReader(bytes.NewReader(buf.Bytes())))
	if !errors.Is(err, ErrFraming) {
		t.Errorf("oversized length: err = %v, want ErrFraming", err)
	}
}
