package protocol

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compressor compresses frame bodies once the peer has advertised a
// compression threshold.
type Compressor interface {
	Compress(src []byte) ([]byte, error)

	// Decompress inflates src, which must expand to exactly size bytes.
	Decompress(src []byte, size int) ([]byte, error)
}

// ZlibCompressor is the zlib Compressor the game protocol specifies.
type ZlibCompressor struct {
	// Level is the zlib compression level. Zero means zlib.DefaultCompression.
	Level int
}

// Compress deflates src into a zlib stream.
func (z ZlibCompressor) Compress(src []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress inflates src and checks the result against size.
func (z ZlibCompressor) Decompress(src []byte, size int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, framingError("corrupt zlib body: " + err.Error())
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, framingError("corrupt zlib body: " + err.Error())
	}
	if len(out) != size {
		return nil, ErrDataLengthInvalid
	}
	return out, nil
}
