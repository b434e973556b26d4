package ubl

import (
	"io"

	"golang.org/x/net/html/charset"
)

// charsetReader decodes declared non UTF-8 encodings such as ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	return charset.NewReaderLabel(label, input)
}

func passthroughCharsetReader(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}
