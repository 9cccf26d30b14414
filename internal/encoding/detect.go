// Package encoding decodes financial exports of unknown charset to UTF-8.
// Real-world spreadsheet and bank exports arrive as UTF-8 with or without
// BOM, UTF-16, or one of the Windows/Latin single-byte codepages.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// peekSize covers BOM detection plus enough content for charset heuristics.
const peekSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader wraps r in a reader that yields UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM stripped; UTF-16 LE/BE decoded)
//  2. valid UTF-8 passes through unchanged
//  3. chardet heuristic for the common single-byte codepages
//  4. fallback to Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if decoded, ok := decodeBOM(br, buf); ok {
		return decoded, nil
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if decoded, ok := decodeDetected(br, buf); ok {
		return decoded, nil
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

func decodeBOM(br *bufio.Reader, buf []byte) (io.Reader, bool) {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, true
	case bytes.HasPrefix(buf, bomUTF16LE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec), true
	case bytes.HasPrefix(buf, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec), true
	}

	return nil, false
}

func decodeDetected(br *bufio.Reader, buf []byte) (io.Reader, bool) {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil {
		return nil, false
	}

	switch result.Charset {
	case "UTF-8":
		return br, true
	case "ISO-8859-1", "windows-1252":
		return transform.NewReader(br, charmap.Windows1252.NewDecoder()), true
	case "ISO-8859-9":
		return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), true
	case "ISO-8859-15":
		return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), true
	}

	return nil, false
}
