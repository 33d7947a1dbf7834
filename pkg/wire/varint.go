package wire

import (
	"encoding/base64"
	"crypto/sha256"

	"github.com/relaydoc/relaydoc/pkg/errs"
)

// cursor is a read position over an immutable byte slice, used by all
// frame decoders in this package. It never copies the underlying slice.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// readByte reads a single byte, failing with ErrInvalidFrame on underrun.
func (c *cursor) readByte() (byte, error) {
	if c.remaining() < 1 {
		return 0, errs.New(errs.CodeInvalidFrame, "unexpected end of frame reading byte")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// readVaruint reads a LEB128-style variable-length unsigned integer.
func (c *cursor) readVaruint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if shift >= 64 {
			return 0, errs.New(errs.CodeInvalidFrame, "varuint too long")
		}
		b, err := c.readByte()
		if err != nil {
			return 0, errs.New(errs.CodeInvalidFrame, "unexpected end of frame reading varuint")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// readBytes reads a length-prefixed raw byte array.
func (c *cursor) readBytes() ([]byte, error) {
	n, err := c.readVaruint()
	if err != nil {
		return nil, err
	}
	if uint64(c.remaining()) < n {
		return nil, errs.New(errs.CodeInvalidFrame, "unexpected end of frame reading bytes")
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+int(n)])
	c.pos += int(n)
	return out, nil
}

// readVarstring reads a length-prefixed UTF-8 string.
func (c *cursor) readVarstring() (string, error) {
	b, err := c.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encoder accumulates encoded bytes for a single frame.
type encoder struct {
	buf []byte
}

func (e *encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

// writeVaruint appends v as a LEB128-style variable-length unsigned integer.
func (e *encoder) writeVaruint(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf = append(e.buf, b)
		if v == 0 {
			return
		}
	}
}

func (e *encoder) writeBytes(b []byte) {
	e.writeVaruint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) writeVarstring(s string) {
	e.writeBytes([]byte(s))
}

func (e *encoder) bytes() []byte {
	return e.buf
}

// MessageID computes the content-addressed identifier of a ciphertext
// payload: base64(sha256(payload)). Identifiers are never transmitted on
// the wire; a receiver always recomputes them from the payload.
func MessageID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
