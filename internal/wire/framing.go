package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/duallink/duallink/internal/model"
)

// MaxFrameBytes is the maximum signaling message body length the reader
// accepts (spec §4.A: "Maximum body length 1 MiB").
const MaxFrameBytes = 1 << 20

// FrameWriter writes length-prefixed JSON signaling messages: a 4-byte
// big-endian length prefix followed by the UTF-8 JSON body, no trailing
// delimiter.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteMessage marshals msg to JSON and writes it length-prefixed.
func (fw *FrameWriter) WriteMessage(msg model.SignalingMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("wire: marshal signaling message: %w", err)
	}
	return fw.WriteBytes(body)
}

// WriteBytes writes a raw length-prefixed body.
func (fw *FrameWriter) WriteBytes(body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := fw.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := fw.w.Write(body); err != nil {
		return fmt.Errorf("wire: write body: %w", err)
	}
	return nil
}

// FrameReader reads length-prefixed JSON signaling messages, rejecting
// any body longer than MaxFrameBytes.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ErrFrameTooLarge is returned when a length prefix exceeds MaxFrameBytes.
var ErrFrameTooLarge = fmt.Errorf("wire: signaling frame exceeds %d bytes", MaxFrameBytes)

// ReadMessage reads one length-prefixed frame and unmarshals it as a
// SignalingMessage. Unknown JSON fields are ignored by encoding/json;
// missing optional fields take Go zero values.
func (fr *FrameReader) ReadMessage() (model.SignalingMessage, error) {
	body, err := fr.ReadBytes()
	if err != nil {
		return model.SignalingMessage{}, err
	}
	var msg model.SignalingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return model.SignalingMessage{}, fmt.Errorf("wire: unmarshal signaling message: %w", err)
	}
	return msg, nil
}

// ReadBytes reads one raw length-prefixed body.
func (fr *FrameReader) ReadBytes() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("wire: read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return nil, fmt.Errorf("wire: read body: %w", err)
	}
	return body, nil
}
