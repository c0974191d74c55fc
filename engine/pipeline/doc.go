/*
Package pipeline turns emoji strings into subset web fonts.

Process is the pure pipeline function. It runs the stages

	decode → resolve → close → subset → transcode

on a shared, read-only source font, without touching any other state.

Pipeline is the front door for concurrent clients. It memoizes results in a
ResultCache and makes sure that at most one build per cache key is running at
any time: concurrent requests for the same key wait for the running build
instead of starting their own. Builds are executed on a bounded pool of
workers. Clients may stop waiting for a result (by cancelling the context),
but a running build is never interrupted; its result will populate the cache.

Pipeline failures are reported as *PipelineError, carrying the failing stage
and the diagnostics collected so far. The pipeline never retries: every
stage is deterministic, and a retry would reproduce the failure.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package pipeline

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'emoji.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("emoji.pipeline")
}
