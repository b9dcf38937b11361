// Package metrics provides observability hooks for link resolution.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics stay optional without nil checks:
//
//	scanner := scan.New(resolver, scan.Options{Recorder: metrics.NoopRecorder{}})
//
// When metrics are enabled the CLI builds a PrometheusRecorder on a private
// registry and serves it with HTTPHandler.
package metrics
