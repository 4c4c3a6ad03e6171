// Package compress holds the codecs used to package finished stores.
package compress

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	// Ext is the file extension appended to packaged files, empty for no compression.
	Ext() string
}

// ByName returns the codec configured under artifact.compression.
func ByName(name string) (Compress, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// encode writes data through the writer returned by wrap.
func encode(data []byte, wrap func(io.Writer) io.WriteCloser) ([]byte, error) {
	var buf bytes.Buffer
	w := wrap(&buf)
	_, err := w.Write(data)
	if err != nil {
		return nil, err
	}

	err = w.Close()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decode(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
