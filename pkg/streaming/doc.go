/*
Package streaming composes byte streams into pipelines.

  - stage: the Source, Sink and Through capabilities and adapters turning
    readers, writers and functions into stages
  - pipe: links stages into a pipeline and reports its outcome exactly once
  - fsstage, httpstage, redisstage: files, HTTP bodies and Redis values
  - codec, archive, throttle: gzip, tar and bandwidth pacing

Basic usage:

	err := pipe.Pipe([]stage.Stage{
		fsstage.Open("access.log"),
		codec.Gzip(),
		fsstage.Create("access.log.gz"),
	}, func(err error) {
		if err != nil {
			log.Printf("compress failed: %v", err)
		}
	})

Pipe returns a validation error synchronously and otherwise calls the
callback once, after every listener it installed has been removed.
*/
package streaming
