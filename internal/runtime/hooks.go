package runtime

import (
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
)

// WarnContext carries one observed warning to hooks.
type WarnContext struct {
	// Stage is the name of the entity that raised the warning.
	Stage string
	// Context is the sourced provenance value of the active processing call,
	// or nil when the warning was raised outside one. Hooks must handle nil.
	Context *Provenance
	// Kind is the warning counter that was bumped.
	Kind string
	// Err is the underlying data-level error. Never nil.
	Err error
}

// WarnHooks defines callbacks for observed warnings. Warnings are counted
// whether or not a hook is installed; hooks only add visibility and must not
// interrupt data flow. A nil hook is simply not called.
type WarnHooks struct {
	OnWarn func(ctx WarnContext)
}

// Merge combines two WarnHooks; other's hooks run after h's.
func (h WarnHooks) Merge(other WarnHooks) WarnHooks {
	return WarnHooks{OnWarn: chainWarnHooks(h.OnWarn, other.OnWarn)}
}

func chainWarnHooks(a, b func(WarnContext)) func(WarnContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx WarnContext) {
		a(ctx)
		b(ctx)
	}
}

// LoggingHooks returns pre-built hooks that log every warning through the
// supplied logger.
func LoggingHooks(logger loggingpkg.ServiceLogger) WarnHooks {
	return WarnHooks{
		OnWarn: func(ctx WarnContext) {
			fields := loggingpkg.LogFields{
				"stage": ctx.Stage,
				"kind":  ctx.Kind,
			}
			if ctx.Context != nil {
				fields["provenance"] = ctx.Context.Label()
			}
			logger.Warn("pipeline warning", ctx.Err, fields)
		},
	}
}

// MetricsHooks returns pre-built hooks that forward warnings to a recording
// function, typically backed by StageMetrics.
func MetricsHooks(record func(stage, kind string)) WarnHooks {
	return WarnHooks{
		OnWarn: func(ctx WarnContext) {
			if record != nil {
				record(ctx.Stage, ctx.Kind)
			}
		},
	}
}

// AlertingHooks returns pre-built hooks that trigger an alert for every
// warning.
func AlertingHooks(alert func(ctx WarnContext)) WarnHooks {
	return WarnHooks{OnWarn: alert}
}
