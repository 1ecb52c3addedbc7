/*
Package stage defines the capability interfaces of the participants in a pipe
and a set of io-backed adapters that implement them.

A stage's role is positional. The first stage of a pipe is a Source, the last
is a Sink and every interior stage is a Through (both). Each stage carries an
event registry so the composer can observe errors and completion:

	EventError   the stage failed; the listener receives the stage's error
	EventEnd     a Source produced all of its data
	EventFinish  a Sink accepted all data and closed after End

# Adapters

	src := stage.NewSource("input", strings.NewReader("hello"))
	dst := stage.NewSink("output", &buf)

	gz := stage.NewThrough("gzip", func(dst io.Writer, src io.Reader) error {
		zw := gzip.NewWriter(dst)
		if _, err := io.Copy(zw, src); err != nil {
			return err
		}
		return zw.Close()
	})

NewProducer, NewConsumer and NewThrough run the supplied function on its own
goroutine, connected to the pipe through io.Pipe, so a blocked downstream
suspends the producer.

# Events

Emitter is usable as a zero value and is embedded by every adapter:

	id := dst.On(stage.EventFinish, func(error) { fmt.Println("flushed") })
	defer dst.Off(stage.EventFinish, id)

Emitting an event that nobody listens to is a no-op.

# Thread Safety

Emitter is safe for concurrent use. Adapters accept one reader and one writer
goroutine at a time; Abort may be called from any goroutine.
*/
package stage
