// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package charset decodes file content through an ordered list of text
// encodings and encodes rewritten content in the one canonical encoding.
package charset

import (
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// CanonicalName is the encoding every rewritten file is written in.
const CanonicalName = "utf-8"

var (
	// ErrNoEncodingMatched is returned when no decoder in a chain accepts the content.
	ErrNoEncodingMatched = errors.New("no encoding matched")

	// ErrUnknownEncoding is returned by Lookup for names it does not know.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// DefaultNames is the decode order used when nothing else is configured.
var DefaultNames = []string{"utf-8-sig", "utf-8", "latin-1"}

// 🔤 Decoder turns raw bytes into text or reports that it cannot
type Decoder interface {
	// Name returns the canonical name of the encoding
	Name() string
	// Decode returns an error instead of substituting replacement characters
	Decode(data []byte) (string, error)
}

// strictUTF8 rejects any invalid byte sequence. With stripBOM set it behaves
// like utf-8-sig: a leading byte order mark is dropped from the text.
type strictUTF8 struct {
	name     string
	stripBOM bool
}

func (d strictUTF8) Name() string { return d.name }

func (d strictUTF8) Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.Errorf("invalid %s byte sequence", d.name)
	}
	if !d.stripBOM {
		return string(data), nil
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("decoding %s: %w", d.name, err)
	}
	return string(out), nil
}

// utf16BOM only accepts content that starts with a byte order mark
type utf16BOM struct{}

func (utf16BOM) Name() string { return "utf-16" }

func (utf16BOM) Decode(data []byte) (string, error) {
	if len(data)%2 != 0 {
		return "", errors.Errorf("odd utf-16 byte length %d", len(data))
	}
	if len(data) < 2 {
		return "", errors.New("missing utf-16 byte order mark")
	}
	var bigEndian bool
	switch {
	case data[0] == 0xFE && data[1] == 0xFF:
		bigEndian = true
	case data[0] == 0xFF && data[1] == 0xFE:
	default:
		return "", errors.New("missing utf-16 byte order mark")
	}
	// the x/text decoder substitutes U+FFFD for unpaired surrogates
	if off := unpairedSurrogate(data[2:], bigEndian); off >= 0 {
		return "", errors.Errorf("unpaired utf-16 surrogate at byte %d", off+2)
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("decoding utf-16: %w", err)
	}
	return string(out), nil
}

// unpairedSurrogate returns the byte offset of the first surrogate code
// unit without a partner, or -1
func unpairedSurrogate(data []byte, bigEndian bool) int {
	unit := func(i int) uint16 {
		if bigEndian {
			return uint16(data[i])<<8 | uint16(data[i+1])
		}
		return uint16(data[i+1])<<8 | uint16(data[i])
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := unit(i)
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(data) {
				return i
			}
			if next := unit(i + 2); next < 0xDC00 || next >= 0xE000 {
				return i
			}
			i += 2
		case u >= 0xDC00 && u < 0xE000:
			return i
		}
	}
	return -1
}

// singleByte wraps a legacy single-byte charmap
type singleByte struct {
	name string
	enc  encoding.Encoding
}

func (d singleByte) Name() string { return d.name }

func (d singleByte) Decode(data []byte) (string, error) {
	out, err := d.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("decoding %s: %w", d.name, err)
	}
	return string(out), nil
}

var decoders = map[string]Decoder{
	"utf-8-sig":    strictUTF8{name: "utf-8-sig", stripBOM: true},
	"utf-8":        strictUTF8{name: "utf-8"},
	"utf-16":       utf16BOM{},
	"latin-1":      singleByte{name: "latin-1", enc: charmap.ISO8859_1},
	"windows-1252": singleByte{name: "windows-1252", enc: charmap.Windows1252},
}

var aliases = map[string]string{
	"utf8-sig":   "utf-8-sig",
	"utf8":       "utf-8",
	"utf16":      "utf-16",
	"latin1":     "latin-1",
	"iso-8859-1": "latin-1",
	"iso8859-1":  "latin-1",
	"cp1252":     "windows-1252",
}

// 🔍 Lookup returns the decoder registered under name or one of its aliases
func Lookup(name string) (Decoder, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	d, ok := decoders[key]
	if !ok {
		return nil, errors.Errorf("%q: %w", name, ErrUnknownEncoding)
	}
	return d, nil
}

// 📝 EncodeCanonical returns text as canonical output bytes (UTF-8, no BOM)
func EncodeCanonical(text string) []byte {
	return []byte(text)
}
