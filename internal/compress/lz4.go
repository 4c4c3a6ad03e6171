package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

type LZ4 struct {
}

func NewLZ4() LZ4 {
	return LZ4{}
}

func (l LZ4) Encode(data []byte) ([]byte, error) {
	return encode(data, func(w io.Writer) io.WriteCloser {
		return lz4.NewWriter(w)
	})
}

func (l LZ4) Decode(data []byte) ([]byte, error) {
	return decode(lz4.NewReader(bytes.NewReader(data)))
}

func (l LZ4) Ext() string {
	return ".lz4"
}
