package settings

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// Provider serves the current configuration to requests without locking.
// The snapshot is replaced after every Save and on each refresh tick, so
// readers may briefly see a stale configuration after an external change.
type Provider struct {
	svc     *Service
	current atomic.Pointer[wholesale.Config]
	lastErr atomic.Pointer[error]
}

// NewProvider creates a Provider serving DefaultConfig until the first refresh.
func NewProvider(svc *Service) *Provider {
	p := &Provider{svc: svc}
	cfg := wholesale.DefaultConfig()
	p.current.Store(&cfg)
	return p
}

// Current returns the configuration snapshot.
func (p *Provider) Current() wholesale.Config {
	return *p.current.Load()
}

// Refresh reloads the configuration from the store. On failure the previous
// snapshot stays in place.
func (p *Provider) Refresh(ctx context.Context) error {
	cfg, err := p.svc.Load(ctx)
	p.lastErr.Store(&err)
	if err != nil {
		return err
	}
	p.current.Store(&cfg)
	return nil
}

// Healthy reports the error of the most recent refresh, if any.
func (p *Provider) Healthy(context.Context) error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// Save persists an update and swaps in the resulting configuration.
func (p *Provider) Save(ctx context.Context, u Update) (wholesale.Config, error) {
	cfg, err := p.svc.Save(ctx, u)
	if err != nil {
		return wholesale.Config{}, err
	}
	p.current.Store(&cfg)
	return cfg, nil
}

// Run refreshes the snapshot every interval until ctx is cancelled.
func (p *Provider) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				lg.Warn("Refresh wholesale settings", zap.Error(err))
			}
		}
	}
}

// Schema describes the admin settings form.
func (p *Provider) Schema(ctx context.Context) ([]Field, error) {
	return p.svc.Schema(ctx)
}
