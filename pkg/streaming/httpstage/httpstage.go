// Package httpstage provides HTTP stages: a response sink for handlers and
// client-side sources and sinks for remote resources.
package httpstage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// StatusError is returned when a remote resource answers with a non-2xx
// status.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

// Response returns a Sink writing into w. Each chunk is flushed to the
// client when w supports it. End does not close the connection; the handler
// returning does.
func Response(w http.ResponseWriter) *stage.WriterSink {
	return stage.NewSink("http response", &flushWriter{w: w})
}

type flushWriter struct {
	w http.ResponseWriter
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if fl, ok := f.w.(http.Flusher); ok && err == nil {
		fl.Flush()
	}
	return n, err
}

// Body returns a Source reading the body of an incoming request.
func Body(r *http.Request) *stage.ReaderSource {
	return stage.NewSource("http request body", r.Body)
}

// Get returns a Source streaming the body of a GET request to url. The
// request is sent on the first Read. A nil client uses http.DefaultClient.
func Get(ctx context.Context, client *http.Client, url string) *stage.ReaderSource {
	if client == nil {
		client = http.DefaultClient
	}
	return stage.NewSource(url, &lazyBody{ctx: ctx, client: client, url: url})
}

type lazyBody struct {
	ctx    context.Context
	client *http.Client
	url    string

	once sync.Once
	body io.ReadCloser
	err  error
}

func (b *lazyBody) open() error {
	b.once.Do(func() {
		req, err := http.NewRequestWithContext(b.ctx, http.MethodGet, b.url, nil)
		if err != nil {
			b.err = err
			return
		}
		resp, err := b.client.Do(req)
		if err != nil {
			b.err = err
			return
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_ = resp.Body.Close()
			b.err = &StatusError{Method: http.MethodGet, URL: b.url, Code: resp.StatusCode}
			return
		}
		b.body = resp.Body
	})
	return b.err
}

func (b *lazyBody) Read(p []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	return b.body.Read(p)
}

func (b *lazyBody) Close() error {
	b.once.Do(func() { b.err = http.ErrBodyReadAfterClose })
	if b.body != nil {
		return b.body.Close()
	}
	return nil
}

// Post returns a Sink uploading everything written to it as the body of a
// POST request to url. The request starts with the first Write or End and
// the sink finishes once a 2xx response was received.
func Post(ctx context.Context, client *http.Client, url, contentType string) *stage.Consumer {
	if client == nil {
		client = http.DefaultClient
	}
	return stage.NewConsumer("POST "+url, func(r io.Reader) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode}
		}
		return nil
	})
}
