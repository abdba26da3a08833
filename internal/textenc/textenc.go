// Package textenc decodes source files of unknown encoding into UTF-8 by
// trying a fixed cascade of character sets.
package textenc

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Forced names the last-resort decoding: UTF-8 with every invalid byte
// replaced by U+FFFD.
const Forced = "utf-8 (forced)"

// DefaultCascade is the order in which encodings are attempted.
var DefaultCascade = []string{"utf-8", "cp1252", "latin-1", "iso-8859-1"}

// Result is a decoded file.
type Result struct {
	Text     string
	Encoding string
}

// Lossy reports whether the text went through replacement decoding.
func (r Result) Lossy() bool { return r.Encoding == Forced }

// UTF8 reports whether the source was already valid UTF-8.
func (r Result) UTF8() bool { return r.Encoding == "utf-8" }

type decodeFunc func([]byte) (string, bool)

// cp1252Undefined are the bytes Windows-1252 leaves unassigned. A strict
// decoder rejects them, which lets the cascade move on to latin-1.
var cp1252Undefined = []byte{0x81, 0x8d, 0x8f, 0x90, 0x9d}

var decoders = map[string]decodeFunc{
	"utf-8": func(b []byte) (string, bool) {
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	},
	"cp1252": func(b []byte) (string, bool) {
		for _, c := range cp1252Undefined {
			if bytes.IndexByte(b, c) >= 0 {
				return "", false
			}
		}
		return decodeWith(charmap.Windows1252, b)
	},
	"latin-1":     func(b []byte) (string, bool) { return decodeWith(charmap.ISO8859_1, b) },
	"iso-8859-1":  func(b []byte) (string, bool) { return decodeWith(charmap.ISO8859_1, b) },
	"iso-8859-15": func(b []byte) (string, bool) { return decodeWith(charmap.ISO8859_15, b) },
}

func decodeWith(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Decoder walks a cascade of encodings.
type Decoder struct {
	cascade []string
}

// NewDecoder returns a decoder for the given cascade, or DefaultCascade when
// none is given. Unknown encoding names are rejected.
func NewDecoder(cascade ...string) (*Decoder, error) {
	if len(cascade) == 0 {
		cascade = DefaultCascade
	}
	for _, name := range cascade {
		if _, ok := decoders[name]; !ok {
			return nil, fmt.Errorf("unsupported encoding %q", name)
		}
	}
	return &Decoder{cascade: cascade}, nil
}

// Decode returns the first successful decoding of data. It never fails: when
// the whole cascade rejects the input it is decoded as UTF-8 with
// replacement characters.
func (d *Decoder) Decode(data []byte) Result {
	for _, name := range d.cascade {
		if text, ok := decoders[name](data); ok {
			return Result{Text: text, Encoding: name}
		}
	}
	out, _ := unicode.UTF8.NewDecoder().Bytes(data)
	return Result{Text: string(out), Encoding: Forced}
}

// ReadFile reads and decodes path.
func (d *Decoder) ReadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return d.Decode(data), nil
}

var std = &Decoder{cascade: DefaultCascade}

// Decode decodes data with the default cascade.
func Decode(data []byte) Result { return std.Decode(data) }

// ReadFile reads and decodes path with the default cascade.
func ReadFile(path string) (Result, error) { return std.ReadFile(path) }
