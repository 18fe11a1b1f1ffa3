package main

import (
	"context"

	"github.com/platinummonkey/gvserver/pkg/observability"
)

// releaser unwinds resources acquired during startup when serve returns
// before its servers are running. Once the shutdown manager owns them,
// disarm hands them over.
type releaser struct {
	logger *observability.Logger
	names  []string
	funcs  []func(context.Context) error
	armed  bool
}

func newReleaser(logger *observability.Logger) *releaser {
	return &releaser{logger: logger, armed: true}
}

func (r *releaser) add(name string, fn func(context.Context) error) {
	r.names = append(r.names, name)
	r.funcs = append(r.funcs, fn)
}

func (r *releaser) disarm() {
	r.armed = false
}

// release runs the registered funcs in reverse order
func (r *releaser) release(ctx context.Context) {
	if !r.armed {
		return
	}
	for i := len(r.funcs) - 1; i >= 0; i-- {
		if err := r.funcs[i](ctx); err != nil {
			r.logger.WithError(err).WithField("resource", r.names[i]).Warn("Failed to release resource after startup error")
		}
	}
	r.names, r.funcs = nil, nil
}
