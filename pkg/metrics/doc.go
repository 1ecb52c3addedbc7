// Package metrics provides Prometheus instrumentation for pipeflow pipelines.
//
// A Registry is passed to the pipe package through pipe.Config.Metrics. A nil
// Registry disables instrumentation.
//
//	reg := prometheus.NewRegistry()
//	cfg := pipe.DefaultConfig()
//	cfg.Metrics = metrics.NewRegistry(reg)
//	cfg.Name = "backup"
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
//   - pipeflow_pipe_started_total: Total number of pipelines started
//   - pipeflow_pipe_settled_total: Pipelines settled, labelled by outcome ("success" or "error")
//   - pipeflow_pipe_duration_seconds: Time from start to settlement
//   - pipeflow_pipe_active: Pipelines that have not settled yet
//   - pipeflow_pipe_registrations: Listeners attached to stages; returns to 0 once every pipeline settled
//   - pipeflow_pipe_late_events_total: Stage events that arrived after settlement and were discarded
//   - pipeflow_link_bytes_total: Bytes moved across links
//   - pipeflow_http_requests_total: Requests served by "pipeflow serve"
//
// Every pipeline metric carries a pipe_name label taken from pipe.Config.Name.
package metrics
