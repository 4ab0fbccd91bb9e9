// Package encoding normalizes uploaded bank statements to UTF-8. Portuguese
// banks still export Windows-1252 or ISO-8859-15 files.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names reported by Detect.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO885915   = "ISO-8859-15"
)

const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect sniffs the start of r and returns the detected charset together with
// a reader yielding the whole content as UTF-8. A UTF-8 BOM is dropped.
//
// Without a BOM, valid UTF-8 is passed through, then chardet is consulted,
// and anything it cannot place is decoded as Windows-1252.
func Detect(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", nil, fmt.Errorf("sniffing charset: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return UTF8, br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return UTF16LE, decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return UTF16BE, decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), nil
	case validUTF8(buf, len(buf) == sniffSize):
		return UTF8, br, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return UTF8, br, nil
		case "ISO-8859-15":
			return ISO885915, decode(br, charmap.ISO8859_15), nil
		}
	}

	// ISO-8859-1 and everything unrecognised.
	return Windows1252, decode(br, charmap.Windows1252), nil
}

// NewUTF8Reader is Detect without the charset name.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	_, out, err := Detect(r)
	return out, err
}

// validUTF8 ignores a rune cut in half at the end of a truncated sniff.
func validUTF8(b []byte, truncated bool) bool {
	if truncated {
		for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
			if !utf8.RuneStart(b[len(b)-i]) {
				continue
			}

			if !utf8.FullRune(b[len(b)-i:]) {
				b = b[:len(b)-i]
			}

			break
		}
	}

	return utf8.Valid(b)
}

func decode(r io.Reader, e encoding.Encoding) io.Reader {
	return transform.NewReader(r, e.NewDecoder())
}
