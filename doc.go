/*
Package pipeflow composes streaming stages into pipelines whose outcome is
reported exactly once.

Streaming (pkg/streaming):
  - stage: Source, Sink and Through capabilities and their adapters
  - pipe: Pipe, PipeWithConfig, Run and ReadAll
  - fsstage, httpstage, redisstage: files, HTTP and Redis endpoints
  - codec, archive, throttle: gzip, tar and bandwidth pacing

Scheduling (pkg/scheduling):
  - scheduler: cron schedules for recurring pipelines
  - workerpool: bounded concurrent execution

Rate Limiting (pkg/ratelimit):
  - bucket: byte token bucket
  - concurrency: permit limiter

Example usage:

	import (
		"github.com/vnykmshr/pipeflow/pkg/streaming/codec"
		"github.com/vnykmshr/pipeflow/pkg/streaming/fsstage"
		"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
		"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
	)

	err := pipe.Run([]stage.Stage{
		fsstage.Open("report.csv"),
		codec.Gzip(),
		fsstage.Create("report.csv.gz"),
	}, pipe.DefaultConfig())

The pipeflow command (cmd/pipeflow) exposes the same stages from the shell.
*/
package pipeflow
