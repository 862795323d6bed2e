// Package codec implements the referee's wire format: length-prefixed JSON
// messages, "<decimal-length>:<utf8-json-bytes>", with no delimiter between
// messages on the stream (spec.md §4.1).
package codec

import (
	"bufio"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/gennai/arena/internal/arenaerr"
)

// Encoder writes framed JSON messages to an underlying stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w for framed writes.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode marshals v to JSON and writes "<len>:<json>" with no trailing
// separator. If w has a Flush() error method (a buffered writer), it is
// flushed after the payload is written.
func (e *Encoder) Encode(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "codec: marshal")
	}
	prefix := strconv.Itoa(len(payload)) + ":"
	if _, err := io.WriteString(e.w, prefix); err != nil {
		return errors.Wrap(err, "codec: write length prefix")
	}
	if _, err := e.w.Write(payload); err != nil {
		return errors.Wrap(err, "codec: write payload")
	}
	if f, ok := e.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return errors.Wrap(err, "codec: flush")
		}
	}
	return nil
}

// Decoder reads framed JSON messages from an underlying stream.
//
// A Decoder must be driven by a single goroutine: Decode blocks reading
// byte-by-byte until it has the length prefix, then reads exactly that many
// more bytes. On a length-prefix error it stops at the offending byte; the
// bytes after it stay unread in the decoder's buffered reader and are not
// discarded.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for framed reads.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{r: br}
}

// Decode reads one framed message and unmarshals its JSON payload into v.
func (d *Decoder) Decode(v any) error {
	raw, err := d.readPayload()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return arenaerr.New(arenaerr.KindBadJSON, "invalid json payload: %v", err)
	}
	return nil
}

// readPayload reads the length-prefixed frame and returns the raw JSON bytes.
func (d *Decoder) readPayload() ([]byte, error) {
	var digits []byte
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, arenaerr.New(arenaerr.KindTruncated, "eof reading length prefix: %v", err)
		}
		if b == ':' {
			break
		}
		if b < '0' || b > '9' {
			return nil, arenaerr.New(arenaerr.KindBadLength, "non-digit byte %q in length prefix", b)
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return nil, arenaerr.New(arenaerr.KindEmptyLength, "colon before any digit")
	}

	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return nil, arenaerr.New(arenaerr.KindBadLength, "unparseable length %q", digits)
	}
	// Canonical form: re-stringifying n must reproduce the original digits,
	// rejecting leading zeros other than "0" alone.
	if strconv.Itoa(n) != string(digits) {
		return nil, arenaerr.New(arenaerr.KindBadLength, "non-canonical length %q", digits)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, arenaerr.New(arenaerr.KindTruncated, "eof reading %d-byte payload: %v", n, err)
	}
	return payload, nil
}
