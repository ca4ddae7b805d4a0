package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxLineBytes bounds a single request line.
const MaxLineBytes = 1 << 20

// ErrLineTooLong is returned when a request exceeds MaxLineBytes.
var ErrLineTooLong = errors.New("request line too long")

// DecodeError is a line that is not a valid request. Reading can continue
// after one.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode request: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Reader reads requests, one JSON object per line.
type Reader struct {
	sc *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &Reader{sc: sc}
}

// Next returns the next request. Blank lines are skipped. It returns io.EOF
// at end of input and a *DecodeError for a bad line.
func (r *Reader) Next() (Request, error) {
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			return Request{}, &DecodeError{Line: string(line), Err: err}
		}
		if err := req.Validate(); err != nil {
			return req, &DecodeError{Line: string(line), Err: err}
		}
		return req, nil
	}
	if err := r.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Request{}, ErrLineTooLong
		}
		return Request{}, err
	}
	return Request{}, io.EOF
}

// Writer writes messages, one JSON object per line. It is safe for
// concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write encodes m followed by a newline.
func (w *Writer) Write(m Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(m); err != nil {
		return fmt.Errorf("write %s message: %w", m.Type, err)
	}
	return nil
}
