// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-telemetry/internal/spool"
)

// Publisher is the broker contract the pipeline depends on.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Connected() bool
}

// Observer receives delivery counters. Optional.
type Observer interface {
	Published(n int)
	Spooled()
	PublishFailed()
	SpoolDepth(n int)
}

// Outcome is what happened to one delivered event.
type Outcome int

const (
	Published Outcome = iota
	Spooled
)

func (o Outcome) String() string {
	if o == Published {
		return "published"
	}
	return "spooled"
}

// Pipeline decides between direct publish and spooling.
// It exclusively owns the spool. Not safe for concurrent Deliver calls.
type Pipeline struct {
	pub Publisher
	sp  *spool.Spool
	log *zap.Logger
	obs Observer
}

// New builds a pipeline. obs may be nil.
func New(pub Publisher, sp *spool.Spool, log *zap.Logger, obs Observer) *Pipeline {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Pipeline{pub: pub, sp: sp, log: log, obs: obs}
}

// Connected reports broker reachability.
func (p *Pipeline) Connected() bool { return p.pub.Connected() }

// Pending returns the number of spooled, undelivered events.
func (p *Pipeline) Pending() int { return p.sp.Len() }

// Recover loads a spool file left by an earlier run.
// A load failure is logged and leaves the file for a later attempt.
func (p *Pipeline) Recover() (int, error) {
	if !p.sp.Exists() {
		return 0, nil
	}

	entries, err := p.sp.Load()
	if err != nil {
		p.log.Error("spool load failed", zap.String("path", p.sp.Path()), zap.Error(err))
		return 0, err
	}

	p.log.Info("spool loaded",
		zap.String("path", p.sp.Path()),
		zap.Int("entries", len(entries)),
	)
	p.obs.SpoolDepth(len(entries))
	return len(entries), nil
}

// Deliver publishes one serialized event, or spools it when the broker is
// unreachable. Spooled events always reach the broker before payload.
// A failed publish is not retried in the same cycle.
func (p *Pipeline) Deliver(ctx context.Context, payload string) Outcome {
	if !p.pub.Connected() {
		return p.spool(payload)
	}

	// A file left by an earlier run holds older events; nothing may overtake it.
	if p.sp.Unloaded() {
		if p.sp.Len() == 0 {
			_, _ = p.Recover()
		}
		if p.sp.Unloaded() {
			p.log.Warn("spool file not loaded, holding event behind it", zap.String("path", p.sp.Path()))
			return p.spool(payload)
		}
	}

	if pending := p.sp.Len(); pending > 0 {
		p.log.Info("publishing spooled events", zap.Int("entries", pending))

		n, err := p.sp.Drain(func(entry string) error {
			return p.pub.Publish(ctx, []byte(entry))
		})
		p.obs.Published(n)

		if err != nil {
			if p.sp.Len() > 0 {
				p.log.Warn("spool drain interrupted",
					zap.Int("delivered", n),
					zap.Int("remaining", p.sp.Len()),
					zap.Error(err),
				)
				p.obs.PublishFailed()
				return p.spool(payload)
			}
			// Every entry went out; only the stale file could not be removed.
			p.log.Warn("spool cleanup failed", zap.String("path", p.sp.Path()), zap.Error(err))
		}
	}

	if err := p.pub.Publish(ctx, []byte(payload)); err != nil {
		p.log.Warn("publish failed, spooling event", zap.Error(err))
		p.obs.PublishFailed()
		return p.spool(payload)
	}

	p.obs.Published(1)
	return Published
}

// EndCycle persists pending entries so a crash loses at most the cycle in progress.
func (p *Pipeline) EndCycle() {
	defer func() { p.obs.SpoolDepth(p.sp.Len()) }()

	if p.sp.Len() == 0 {
		if p.sp.Unloaded() {
			_, _ = p.Recover()
		}
		return
	}

	if err := p.sp.Flush(); err != nil {
		if errors.Is(err, spool.ErrEmpty) {
			return
		}
		p.log.Error("spool save failed, keeping entries in memory",
			zap.String("path", p.sp.Path()),
			zap.Int("entries", p.sp.Len()),
			zap.Error(err),
		)
		return
	}

	p.log.Info("spool saved",
		zap.String("path", p.sp.Path()),
		zap.Int("entries", p.sp.Len()),
	)
}

func (p *Pipeline) spool(payload string) Outcome {
	p.sp.Append(payload)
	p.obs.Spooled()
	return Spooled
}

type nopObserver struct{}

func (nopObserver) Published(int)  {}
func (nopObserver) Spooled()       {}
func (nopObserver) PublishFailed() {}
func (nopObserver) SpoolDepth(int) {}
