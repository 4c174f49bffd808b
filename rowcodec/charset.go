package rowcodec

import "unicode/utf8"

// Charset decodes the raw bytes of a Varchar field's payload into a Go
// string. Collation tables are explicitly out of scope for this
// package (they live with the adapter/query-planning layer); Charset
// only needs to know how to turn bytes into runes.
type Charset interface {
	Name() string
	// Decode validates and decodes raw into a string. It must not
	// retain raw.
	Decode(raw []byte) (string, error)
}

type utf8Charset struct{}

func (utf8Charset) Name() string { return "utf8" }

func (utf8Charset) Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", &EncodingError{Reason: "invalid utf8 byte sequence"}
	}
	return string(raw), nil
}

// CharsetUTF8 is the default, and only built-in, Charset.
var CharsetUTF8 Charset = utf8Charset{}
