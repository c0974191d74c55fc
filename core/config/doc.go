package config

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'emoji.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.pipeline")
}
