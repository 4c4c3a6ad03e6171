package compress

import (
	"bytes"
	"compress/gzip"
	"io"
)

type GZip struct {
}

func NewGZip() GZip {
	return GZip{}
}

func (g GZip) Encode(data []byte) ([]byte, error) {
	return encode(data, func(w io.Writer) io.WriteCloser {
		return gzip.NewWriter(w)
	})
}

func (g GZip) Decode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return decode(gr)
}

func (g GZip) Ext() string {
	return ".gz"
}
