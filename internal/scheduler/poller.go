package scheduler

import (
	"context"
	"log/slog"
	"time"

	"outreach-platform/internal/campaign"
)

// Advancer is the orchestrator surface the poller drives.
type Advancer interface {
	Advance(ctx context.Context, workspaceID, campaignID string) (campaign.AdvanceResult, error)
	Sweep(ctx context.Context) error
}

// Poller turns the stateless orchestrator into a running system: it claims
// due triggers and invokes Advance for each, and periodically runs the stall
// sweep so a lost trigger cannot strand an active campaign.
//
// Every invocation is independent; the poller holds no campaign state.
type Poller struct {
	trigger  *RedisTrigger
	advancer Advancer
	log      *slog.Logger

	pollInterval  time.Duration
	sweepInterval time.Duration
	batchSize     int
}

func NewPoller(trigger *RedisTrigger, advancer Advancer, log *slog.Logger, pollInterval, sweepInterval time.Duration) *Poller {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Poller{
		trigger:       trigger,
		advancer:      advancer,
		log:           log,
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		batchSize:     50,
	}
}

// Run blocks until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	poll := time.NewTicker(p.pollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(p.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			p.drainDue(ctx)
		case <-sweep.C:
			if err := p.advancer.Sweep(ctx); err != nil {
				p.log.Error("stall sweep failed", "err", err)
			}
		}
	}
}

func (p *Poller) drainDue(ctx context.Context) {
	due, err := p.trigger.PopDue(ctx, p.batchSize)
	if err != nil {
		p.log.Error("trigger poll failed", "err", err)
		return
	}
	for _, d := range due {
		res, err := p.advancer.Advance(ctx, d.WorkspaceID, d.CampaignID)
		if err != nil {
			// Initiation failures re-arm their own retry trigger; nothing
			// else to do here.
			p.log.Error("advance failed", "campaign_id", d.CampaignID, "err", err)
			continue
		}
		p.log.Debug("advance", "campaign_id", d.CampaignID, "outcome", string(res.Outcome))
	}
}
