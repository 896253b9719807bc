package stream

import (
	"io"

	"sapid/internal/sse"
)

// Reader drives a frame decoder and an interpreter over a raw SSE body and
// hands out events one at a time.
//
// Next returns io.EOF once the stream has completed, either through a Done
// event or the body ending. After a Done event no further frames are
// interpreted, even if the body carried more. Any transport error is returned
// as-is and terminates the stream.
//
// Callers must Close the reader on every exit path so the underlying
// connection is released.
type Reader struct {
	body   io.ReadCloser
	dec    *sse.Decoder
	interp Interpreter
	buf    []byte
	frames []string
	eof    bool
	done   bool
}

func NewReader(body io.ReadCloser, interp Interpreter) *Reader {
	return &Reader{
		body:   body,
		dec:    sse.NewDecoder(),
		interp: interp,
		buf:    make([]byte, 4096),
	}
}

func (r *Reader) Next() (Event, error) {
	for {
		if r.done {
			return nil, io.EOF
		}

		for len(r.frames) > 0 {
			frame := r.frames[0]
			r.frames = r.frames[1:]

			ev, ok := r.interp.Interpret(frame)
			if !ok {
				continue
			}
			if _, isDone := ev.(Done); isDone {
				// Completion is immediate: queued frames are never read.
				r.done = true
				r.frames = nil
			}
			return ev, nil
		}

		if r.eof {
			r.done = true
			return nil, io.EOF
		}

		n, err := r.body.Read(r.buf)
		if n > 0 {
			r.frames = append(r.frames, r.dec.Feed(r.buf[:n])...)
		}
		if err == io.EOF {
			if frame, ok := r.dec.Flush(); ok {
				r.frames = append(r.frames, frame)
			}
			r.eof = true
			continue
		}
		if err != nil {
			r.done = true
			return nil, err
		}
	}
}

// Discarded reports how many raw lines the decoder dropped, for callers that
// want to observe the drop rate.
func (r *Reader) Discarded() int {
	return r.dec.Discarded()
}

func (r *Reader) Close() error {
	r.done = true
	return r.body.Close()
}
