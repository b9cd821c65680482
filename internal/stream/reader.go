package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Reader decodes a text/event-stream body into Events incrementally.
// Each frame's data lines are joined and parsed as a JSON object whose "type"
// field names the event. Comment lines and other fields are ignored.
type Reader struct {
	r    *bufio.Reader
	data bytes.Buffer
	done bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next event. It returns io.EOF once the body is exhausted.
// A final frame not followed by a blank line is still returned.
func (r *Reader) Next() (Event, error) {
	for {
		if r.done {
			return Event{}, io.EOF
		}
		line, err := r.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Event{}, fmt.Errorf("read event stream: %w", err)
		}
		if err == io.EOF {
			r.done = true
			if len(line) > 0 {
				r.field(line)
			}
			if r.data.Len() > 0 {
				return r.flush()
			}
			return Event{}, io.EOF
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if r.data.Len() > 0 {
				return r.flush()
			}
			continue
		}
		r.field(line)
	}
}

func (r *Reader) field(line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 || line[0] == ':' {
		return
	}
	name, value, found := bytes.Cut(line, []byte(":"))
	if !found || string(name) != "data" {
		return
	}
	value = bytes.TrimPrefix(value, []byte(" "))
	if r.data.Len() > 0 {
		r.data.WriteByte('\n')
	}
	r.data.Write(value)
}

func (r *Reader) flush() (Event, error) {
	payload := bytes.Clone(r.data.Bytes())
	r.data.Reset()

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return Event{}, fmt.Errorf("decode event frame: %w", err)
	}
	return Event{Type: head.Type, Payload: payload}, nil
}

// ReadAll feeds every event from body to dispatch until EOF or an error.
// It returns nil at a clean end of stream.
func ReadAll(body io.Reader, dispatch func(Event)) error {
	r := NewReader(body)
	for {
		e, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		dispatch(e)
	}
}
