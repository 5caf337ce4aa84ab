package png

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/mrjoshuak/go-png/compression"
	"github.com/mrjoshuak/go-png/internal/wire"
)

// TextEntry is one keyword/text pair from a tEXt, zTXt, or iTXt chunk.
// Keywords are not unique: the format allows several entries with the
// same keyword, so the metadata keeps them as an ordered list.
type TextEntry struct {
	// Keyword identifies the entry, 1 to 79 Latin-1 characters.
	Keyword string

	// Text is the entry body. Latin-1 for tEXt and zTXt, UTF-8 for
	// iTXt; this field always holds UTF-8, transcoded on decode.
	Text string

	// Compressed requests zTXt (or compressed iTXt) on encode and
	// records which form the entry arrived in on decode.
	Compressed bool

	// International selects the iTXt form, which carries UTF-8 text
	// plus the two tag fields below. Entries whose text does not fit
	// in Latin-1 are promoted to iTXt automatically on encode.
	International bool

	// LanguageTag is the RFC 3066 language of the text, iTXt only.
	LanguageTag string

	// TranslatedKeyword is the keyword in LanguageTag, iTXt only.
	TranslatedKeyword string
}

// checkKeyword validates a chunk keyword: 1 to 79 bytes of printable
// Latin-1 with no leading, trailing, or doubled spaces.
func checkKeyword(kw string) error {
	if len(kw) == 0 || len(kw) > 79 {
		return fmt.Errorf("keyword length %d", len(kw))
	}
	if kw[0] == ' ' || kw[len(kw)-1] == ' ' {
		return fmt.Errorf("keyword %q has leading or trailing space", kw)
	}
	prevSpace := false
	for i := 0; i < len(kw); i++ {
		c := kw[i]
		if (c < 32 || c > 126) && (c < 161) {
			return fmt.Errorf("keyword %q has non-printable byte %#02x", kw, c)
		}
		if c == ' ' {
			if prevSpace {
				return fmt.Errorf("keyword %q has consecutive spaces", kw)
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
	}
	return nil
}

// latin1Representable reports whether s transcodes to Latin-1 without
// loss, i.e. every rune is below U+0100.
func latin1Representable(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// latin1Decode converts raw Latin-1 bytes to UTF-8.
func latin1Decode(b []byte) string {
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s)
}

// latin1Encode converts UTF-8 to Latin-1 bytes. The caller must have
// checked representability; unmappable runes would be replaced.
func latin1Encode(s string) []byte {
	b, _ := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	return b
}

func (d *decoder) decodeTEXT(data []byte) error {
	r := wire.NewReader(data)
	keyword, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: tEXt keyword not terminated", ErrFormat)
	}
	if err := checkKeyword(keyword); err != nil {
		return fmt.Errorf("%w: tEXt: %v", ErrFormat, err)
	}
	d.meta.Text = append(d.meta.Text, TextEntry{
		Keyword: keyword,
		Text:    latin1Decode(r.Rest()),
	})
	return nil
}

func (d *decoder) decodeZTXT(data []byte) error {
	r := wire.NewReader(data)
	keyword, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: zTXt keyword not terminated", ErrFormat)
	}
	if err := checkKeyword(keyword); err != nil {
		return fmt.Errorf("%w: zTXt: %v", ErrFormat, err)
	}
	method, err := r.ReadByte()
	if err != nil || method != 0 {
		return fmt.Errorf("%w: zTXt compression method", ErrFormat)
	}
	text, err := compression.Decompress(r.Rest(), 0)
	if err != nil {
		return fmt.Errorf("%w: zTXt body: %v", ErrDecompression, err)
	}
	d.meta.Text = append(d.meta.Text, TextEntry{
		Keyword:    keyword,
		Text:       latin1Decode(text),
		Compressed: true,
	})
	return nil
}

func (d *decoder) decodeITXT(data []byte) error {
	r := wire.NewReader(data)
	keyword, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: iTXt keyword not terminated", ErrFormat)
	}
	if err := checkKeyword(keyword); err != nil {
		return fmt.Errorf("%w: iTXt: %v", ErrFormat, err)
	}
	compressed, err := r.ReadByte()
	if err != nil || compressed > 1 {
		return fmt.Errorf("%w: iTXt compression flag", ErrFormat)
	}
	method, err := r.ReadByte()
	if err != nil || (compressed == 1 && method != 0) {
		return fmt.Errorf("%w: iTXt compression method", ErrFormat)
	}
	lang, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: iTXt language tag not terminated", ErrFormat)
	}
	translated, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("%w: iTXt translated keyword not terminated", ErrFormat)
	}

	body := r.Rest()
	if compressed == 1 {
		body, err = compression.Decompress(body, 0)
		if err != nil {
			return fmt.Errorf("%w: iTXt body: %v", ErrDecompression, err)
		}
	}
	if !utf8.Valid(body) || !utf8.ValidString(translated) {
		return fmt.Errorf("%w: iTXt text is not valid UTF-8", ErrFormat)
	}

	d.meta.Text = append(d.meta.Text, TextEntry{
		Keyword:           keyword,
		Text:              string(body),
		Compressed:        compressed == 1,
		International:     true,
		LanguageTag:       lang,
		TranslatedKeyword: translated,
	})
	return nil
}

// encodeText serializes one text entry, picking the chunk form: iTXt
// when requested or when the text needs more than Latin-1, zTXt when
// compression is requested, tEXt otherwise.
func encodeText(e *TextEntry, level compression.Level) (tag string, data []byte, err error) {
	international := e.International || !latin1Representable(e.Text)

	if international {
		w := wire.NewBufferWriter(len(e.Keyword) + len(e.Text) + 8)
		w.WriteString(e.Keyword)
		body := []byte(e.Text)
		if e.Compressed {
			w.WriteByte(1)
			w.WriteByte(0) // compression method
			body, err = compression.CompressLevel(body, level)
			if err != nil {
				return "", nil, err
			}
		} else {
			w.WriteByte(0)
			w.WriteByte(0)
		}
		w.WriteString(e.LanguageTag)
		w.WriteString(e.TranslatedKeyword)
		w.WriteBytes(body)
		return tagITXT, w.Bytes(), nil
	}

	if e.Compressed {
		body, err := compression.CompressLevel(latin1Encode(e.Text), level)
		if err != nil {
			return "", nil, err
		}
		w := wire.NewBufferWriter(len(e.Keyword) + 2 + len(body))
		w.WriteString(e.Keyword)
		w.WriteByte(0) // compression method
		w.WriteBytes(body)
		return tagZTXT, w.Bytes(), nil
	}

	w := wire.NewBufferWriter(len(e.Keyword) + 1 + len(e.Text))
	w.WriteString(e.Keyword)
	w.WriteBytes(latin1Encode(e.Text))
	return tagTEXT, w.Bytes(), nil
}
