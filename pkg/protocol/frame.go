package protocol

import (
	"crypto/cipher"
	"errors"
	"io"
)

// Frame constants.
const (
	// MaxFrameSize is the largest declared frame length accepted (2^21 - 1),
	// the most a three byte VarInt length prefix can describe.
	MaxFrameSize = 1<<21 - 1

	// CompressionDisabled is the threshold value meaning frames carry no
	// uncompressed-length field.
	CompressionDisabled = -1

	readChunkSize = 4096
)

// FrameReader splits an inbound byte stream into packet bodies (packet id
// followed by fields).
//
// Wire format, each layer present once negotiated:
//
//	┌──────────────────┬─────────────────────────────┬──────────────────────┐
//	│ Length (VarInt)  │ Data Length (VarInt, when   │ Packet ID + fields   │
//	│                  │ compression is enabled)     │ (zlib when Data      │
//	│                  │                             │ Length > 0)          │
//	└──────────────────┴─────────────────────────────┴──────────────────────┘
//
// The whole stream is AES/CFB8 encrypted once encryption is enabled.
//
// A FrameReader is resumable: when the underlying reader returns an error
// (such as a deadline) in the middle of a frame, the bytes read so far are
// kept and the next ReadFrame continues where the previous one stopped.
// It is not safe for concurrent use.
type FrameReader struct {
	r          io.Reader
	stream     cipher.Stream
	compressor Compressor
	threshold  int
	maxFrame   int

	buf   []byte
	chunk []byte
}

// NewFrameReader returns a FrameReader with compression and encryption
// disabled.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:         r,
		threshold: CompressionDisabled,
		maxFrame:  MaxFrameSize,
		chunk:     make([]byte, readChunkSize),
	}
}

// SetCompression enables the uncompressed-length layer. A negative
// threshold disables it again; c may be nil in that case.
func (fr *FrameReader) SetCompression(threshold int, c Compressor) {
	if threshold < 0 {
		fr.threshold = CompressionDisabled
		fr.compressor = nil
		return
	}
	fr.threshold = threshold
	fr.compressor = c
}

// Threshold returns the current compression threshold.
func (fr *FrameReader) Threshold() int {
	return fr.threshold
}

// EnableEncryption decrypts every byte from now on with s. Bytes that were
// already buffered but not yet returned as part of a frame are decrypted in
// place, since they arrived after the point where the peer switched.
func (fr *FrameReader) EnableEncryption(s cipher.Stream) {
	fr.stream = s
	if len(fr.buf) > 0 {
		s.XORKeyStream(fr.buf, fr.buf)
	}
}

// Encrypted reports whether decryption is active.
func (fr *FrameReader) Encrypted() bool {
	return fr.stream != nil
}

// Buffered returns the number of bytes read from the stream but not yet
// returned.
func (fr *FrameReader) Buffered() int {
	return len(fr.buf)
}

// ReadFrame returns the next packet body with all layers removed.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	for {
		frame, ok, err := fr.cut()
		if err != nil {
			return nil, err
		}
		if ok {
			return fr.unpack(frame)
		}

		n, err := fr.r.Read(fr.chunk)
		if n > 0 {
			data := fr.chunk[:n]
			if fr.stream != nil {
				fr.stream.XORKeyStream(data, data)
			}
			fr.buf = append(fr.buf, data...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(fr.buf) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// cut removes one complete frame from the buffer, if present.
func (fr *FrameReader) cut() ([]byte, bool, error) {
	length, n := DecodeVarInt(fr.buf)
	switch {
	case n == -1:
		return nil, false, nil
	case n < 0:
		return nil, false, ErrInvalidFrameSize
	case length <= 0:
		return nil, false, ErrInvalidFrameSize
	case int(length) > fr.maxFrame:
		return nil, false, ErrFrameTooLarge
	}
	end := n + int(length)
	if len(fr.buf) < end {
		return nil, false, nil
	}
	frame := make([]byte, length)
	copy(frame, fr.buf[n:end])
	fr.buf = append(fr.buf[:0], fr.buf[end:]...)
	return frame, true, nil
}

// unpack strips the compression layer from a frame.
func (fr *FrameReader) unpack(frame []byte) ([]byte, error) {
	if fr.threshold < 0 {
		return frame, nil
	}
	d := NewDecoder(frame)
	dataLen, err := d.ReadVarInt()
	if err != nil {
		return nil, ErrInvalidFrameSize
	}
	rest := frame[d.Position():]
	switch {
	case dataLen == 0:
		if len(rest) == 0 {
			return nil, ErrInvalidFrameSize
		}
		return rest, nil
	case dataLen < 0 || int(dataLen) > DefaultMaxAllocation*4:
		return nil, ErrFrameTooLarge
	}
	body, err := fr.compressor.Decompress(rest, int(dataLen))
	if err != nil {
		return nil, err
	}
	if len(body) != int(dataLen) {
		return nil, ErrDataLengthInvalid
	}
	return body, nil
}

// FrameWriter applies the outbound framing layers and writes whole frames.
// It is not safe for concurrent use.
type FrameWriter struct {
	w          io.Writer
	stream     cipher.Stream
	compressor Compressor
	threshold  int

	enc *Encoder
}

// NewFrameWriter returns a FrameWriter with compression and encryption
// disabled.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:         w,
		threshold: CompressionDisabled,
		enc:       NewEncoderWithCap(512),
	}
}

// SetCompression enables compression of bodies at least threshold bytes
// long. A negative threshold disables compression.
func (fw *FrameWriter) SetCompression(threshold int, c Compressor) {
	if threshold < 0 {
		fw.threshold = CompressionDisabled
		fw.compressor = nil
		return
	}
	fw.threshold = threshold
	fw.compressor = c
}

// Threshold returns the current compression threshold.
func (fw *FrameWriter) Threshold() int {
	return fw.threshold
}

// EnableEncryption encrypts every frame written from now on with s.
func (fw *FrameWriter) EnableEncryption(s cipher.Stream) {
	fw.stream = s
}

// Encrypted reports whether encryption is active.
func (fw *FrameWriter) Encrypted() bool {
	return fw.stream != nil
}

// AppendFrame appends the framed form of body to dst, without encryption.
func (fw *FrameWriter) AppendFrame(dst, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, ErrInvalidFrameSize
	}
	inner := body
	if fw.threshold >= 0 {
		fw.enc.Reset()
		if len(body) >= fw.threshold {
			compressed, err := fw.compressor.Compress(body)
			if err != nil {
				return nil, err
			}
			fw.enc.WriteVarInt(int32(len(body)))
			fw.enc.WriteRaw(compressed)
		} else {
			fw.enc.WriteVarInt(0)
			fw.enc.WriteRaw(body)
		}
		inner = fw.enc.Bytes()
	}
	if len(inner) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	dst = AppendVarInt(dst, int32(len(inner)))
	return append(dst, inner...), nil
}

// WriteFrame frames body and writes it in a single Write call. It returns
// the number of bytes put on the wire.
func (fw *FrameWriter) WriteFrame(body []byte) (int, error) {
	frame, err := fw.AppendFrame(make([]byte, 0, len(body)+8), body)
	if err != nil {
		return 0, err
	}
	if fw.stream != nil {
		fw.stream.XORKeyStream(frame, frame)
	}
	return fw.w.Write(frame)
}
