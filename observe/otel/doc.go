// Package otel provides an OpenTelemetry observer plugin for coop.
// Task events (scheduled, finished, error, panic) are added to the span found
// in the task's context, so a group created under a traced context annotates
// that trace. Lock and counter events carry no context and are not recorded.
package otel
