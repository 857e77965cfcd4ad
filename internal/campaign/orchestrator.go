package campaign

import (
	"context"
	"fmt"
	"time"

	"outreach-platform/internal/agent"
	"outreach-platform/internal/audit"
	"outreach-platform/internal/telephony"
	"outreach-platform/pkg/logger"

	"github.com/google/uuid"
)

// Service drives campaigns to completion across stateless invocations.
//
// Execution model: no long-lived loop. Each entry point (Start, Advance,
// OnCallCompleted, Pause) reads persisted state under the store's campaign
// lock, makes one transition, persists, and returns. The wait for a live
// phone call happens entirely outside the process, between Advance placing a
// call and the provider's status callback arriving at OnCallCompleted.
//
// All entry points are safe to invoke repeatedly (at-least-once triggers).
type Service struct {
	store    Store
	agents   AgentDirectory
	provider telephony.Provider
	trigger  Trigger

	// attempts and audit are best-effort sinks; failures never block a transition.
	attempts AttemptSink
	audit    *audit.Service

	clock func() time.Time

	advanceDelay time.Duration
	defaultRetry RetryPolicy
}

// AgentDirectory resolves the calling agent configuration for a campaign.
type AgentDirectory interface {
	Get(ctx context.Context, workspaceID, agentID string) (agent.Agent, bool, error)
}

// Trigger is the scheduler collaborator: fire-and-forget, at-least-once,
// no ordering guarantee. A lost trigger is repaired by the stall sweep.
type Trigger interface {
	AdvanceAfter(ctx context.Context, workspaceID, campaignID string, delay time.Duration) error
}

// AttemptSink receives immutable attempt records for reporting.
type AttemptSink interface {
	AppendAttempt(ctx context.Context, rec AttemptRecord) error
}

type Options struct {
	// AdvanceDelay is the short chaining delay before dialing the next
	// pending contact after a completion event.
	AdvanceDelay time.Duration

	// DefaultRetry applies when a campaign has no explicit policy.
	DefaultRetry RetryPolicy

	Attempts AttemptSink
	Audit    *audit.Service
}

func NewService(store Store, agents AgentDirectory, provider telephony.Provider, trigger Trigger, opts Options) *Service {
	if opts.AdvanceDelay <= 0 {
		opts.AdvanceDelay = 3 * time.Second
	}
	if opts.DefaultRetry.MaxAttempts <= 0 {
		opts.DefaultRetry.MaxAttempts = 3
	}
	if opts.DefaultRetry.RetryDelay <= 0 {
		opts.DefaultRetry.RetryDelay = 10 * time.Minute
	}
	return &Service{
		store:        store,
		agents:       agents,
		provider:     provider,
		trigger:      trigger,
		attempts:     opts.Attempts,
		audit:        opts.Audit,
		clock:        time.Now,
		advanceDelay: opts.AdvanceDelay,
		defaultRetry: opts.DefaultRetry,
	}
}

/* ===================== CAMPAIGN SETUP ===================== */

type CreateRequest struct {
	Name  string       `json:"name"`
	Retry *RetryPolicy `json:"retry_policy,omitempty"`
}

func (s *Service) Create(ctx context.Context, workspaceID, userID string, req CreateRequest) (Campaign, error) {
	if workspaceID == "" || req.Name == "" {
		return Campaign{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	c := Campaign{
		ID:              uuid.NewString(),
		WorkspaceID:     workspaceID,
		Name:            req.Name,
		Status:          StatusDraft,
		Retry:           s.defaultRetry,
		CreatedByUserID: userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Retry != nil {
		if req.Retry.MaxAttempts <= 0 || req.Retry.RetryDelay < 0 {
			return Campaign{}, ErrInvalidArgument
		}
		c.Retry = *req.Retry
		if c.Retry.RetryDelay == 0 {
			c.Retry.RetryDelay = s.defaultRetry.RetryDelay
		}
	}
	if err := s.store.Create(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

// ImportRoster replaces the roster and resets all execution state.
// Rejected while the campaign is active; a completed campaign moves back to
// draft for a fresh run.
func (s *Service) ImportRoster(ctx context.Context, workspaceID, campaignID string, contacts []Contact) (Campaign, error) {
	if len(contacts) == 0 {
		return Campaign{}, ErrEmptyRoster
	}
	for _, ct := range contacts {
		if ct.Phone == "" {
			return Campaign{}, fmt.Errorf("%w: contact phone required", ErrInvalidArgument)
		}
	}
	now := s.clock().UTC()
	return s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		if c.Status == StatusActive {
			return ErrCampaignLocked
		}
		roster := make([]Contact, len(contacts))
		copy(roster, contacts)
		for i := range roster {
			roster[i].Ordinal = i
		}
		c.Roster = roster
		c.Statuses = nil
		if c.Status == StatusCompleted {
			c.Status = StatusDraft
			c.CompletedAt = nil
			c.StartedAt = nil
		}
		c.UpdatedAt = now
		return nil
	})
}

func (s *Service) AssignAgent(ctx context.Context, workspaceID, campaignID, agentID string) (Campaign, error) {
	if agentID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	if _, ok, err := s.agents.Get(ctx, workspaceID, agentID); err != nil {
		return Campaign{}, err
	} else if !ok {
		return Campaign{}, fmt.Errorf("%w: agent %s", ErrAgentMissing, agentID)
	}
	now := s.clock().UTC()
	return s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		if c.Status == StatusActive {
			return ErrCampaignLocked
		}
		c.AgentID = agentID
		c.UpdatedAt = now
		return nil
	})
}

/* ===================== EXECUTION ===================== */

// StartResult reports the post-start state and the contact that would be
// dialed next. Starting does not place the call; the caller decides when to
// invoke Advance.
type StartResult struct {
	Campaign Campaign `json:"campaign"`
	Next     *Contact `json:"next,omitempty"`
}

// Start activates a campaign, first-time or resume.
//
// First start initializes every contact to pending. On resume, any contact
// left in calling is reset to pending: a call dangling from a crash has an
// unknown outcome and is re-attempted rather than dropped (at-least-once
// calling). Its completion event, if it ever arrives, no longer matches a
// referenced call id and is ignored.
func (s *Service) Start(ctx context.Context, workspaceID, campaignID, userID string) (StartResult, error) {
	if workspaceID == "" || campaignID == "" {
		return StartResult{}, ErrInvalidArgument
	}
	now := s.clock().UTC()

	pre, err := s.store.Get(ctx, workspaceID, campaignID)
	if err != nil {
		return StartResult{}, err
	}
	if pre.AgentID == "" {
		return StartResult{}, ErrAgentMissing
	}
	if _, ok, err := s.agents.Get(ctx, workspaceID, pre.AgentID); err != nil {
		return StartResult{}, err
	} else if !ok {
		return StartResult{}, fmt.Errorf("%w: agent %s", ErrAgentMissing, pre.AgentID)
	}
	if len(pre.Roster) == 0 {
		return StartResult{}, ErrEmptyRoster
	}

	resumed := false
	c, err := s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		if c.AgentID == "" {
			return ErrAgentMissing
		}
		if len(c.Roster) == 0 {
			return ErrEmptyRoster
		}
		if c.Status == StatusCompleted {
			return fmt.Errorf("%w: campaign already completed", ErrInvalidArgument)
		}
		if len(c.Statuses) == 0 {
			c.Statuses = make([]ContactCallStatus, len(c.Roster))
			for i := range c.Roster {
				c.Statuses[i] = ContactCallStatus{
					CampaignID: c.ID,
					Ordinal:    i,
					Status:     ContactStatusPending,
					UpdatedAt:  now,
				}
			}
		} else {
			resumed = true
			// Crash/pause recovery: a dangling in-flight entry goes back to
			// pending, keeping its attempt count.
			for i := range c.Statuses {
				if c.Statuses[i].Status == ContactStatusCalling {
					c.Statuses[i].Status = ContactStatusPending
					c.Statuses[i].CallID = ""
					c.Statuses[i].ProviderCallID = ""
					c.Statuses[i].UpdatedAt = now
				}
			}
		}
		c.Status = StatusActive
		if c.StartedAt == nil {
			c.StartedAt = &now
		}
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}

	action := "campaign started"
	if resumed {
		action = "campaign resumed"
	}
	s.auditCampaign(ctx, c, userID, action, "")

	res := StartResult{Campaign: c}
	if idx := selectEligible(c.Statuses); idx >= 0 {
		ct := c.Roster[idx]
		res.Next = &ct
	}
	return res, nil
}

// Resume re-activates a paused campaign. Start is resume-aware, so this is
// an alias kept for API clarity.
func (s *Service) Resume(ctx context.Context, workspaceID, campaignID, userID string) (StartResult, error) {
	return s.Start(ctx, workspaceID, campaignID, userID)
}

type AdvanceOutcome string

const (
	// AdvanceNotActive means the campaign was paused or completed by another
	// actor. Not an error; it is how the chain stops.
	AdvanceNotActive AdvanceOutcome = "not_active"
	// AdvanceInFlight means a contact already holds calling status.
	AdvanceInFlight AdvanceOutcome = "in_flight"
	// AdvanceCompleted means no eligible contact remained; the campaign is done.
	AdvanceCompleted AdvanceOutcome = "completed"
	AdvanceCallPlaced AdvanceOutcome = "call_placed"
)

type AdvanceResult struct {
	Outcome AdvanceOutcome `json:"outcome"`
	Contact *Contact       `json:"contact,omitempty"`
	CallID  string         `json:"call_id,omitempty"`
}

// Advance places exactly one call for the next eligible contact, or marks the
// campaign completed when none remains.
//
// Selection drains pending contacts in roster order first; retry contacts are
// deferred until no pending remain, so one bad number cannot stall
// throughput. A retry contact whose attempts are exhausted is failed in place
// and selection continues.
//
// The persisted calling claim is the single-flight guard: a concurrent
// Advance reloading under the campaign lock observes the claim and no-ops.
func (s *Service) Advance(ctx context.Context, workspaceID, campaignID string) (AdvanceResult, error) {
	if workspaceID == "" || campaignID == "" {
		return AdvanceResult{}, ErrInvalidArgument
	}
	now := s.clock().UTC()

	var (
		outcome AdvanceOutcome
		claimed *Contact
		callID  string
		agentID string
	)
	c, err := s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		if c.Status != StatusActive {
			outcome = AdvanceNotActive
			return nil
		}
		for i := range c.Statuses {
			if c.Statuses[i].Status == ContactStatusCalling {
				outcome = AdvanceInFlight
				return nil
			}
		}

		max := s.maxAttempts(c)
		var idx int
		for {
			idx = selectEligible(c.Statuses)
			if idx < 0 {
				c.Status = StatusCompleted
				c.CompletedAt = &now
				c.UpdatedAt = now
				outcome = AdvanceCompleted
				return nil
			}
			st := &c.Statuses[idx]
			if st.Status == ContactStatusRetry && st.Attempts >= max {
				st.Status = ContactStatusFailed
				st.Error = "retry attempts exhausted"
				st.UpdatedAt = now
				continue
			}
			break
		}

		st := &c.Statuses[idx]
		st.Status = ContactStatusCalling
		st.Attempts++
		st.CallID = uuid.NewString()
		st.ProviderCallID = ""
		st.Outcome = ""
		st.Error = ""
		st.LastAttemptAt = &now
		st.UpdatedAt = now
		c.UpdatedAt = now

		ct := c.Roster[idx]
		claimed = &ct
		callID = st.CallID
		agentID = c.AgentID
		outcome = AdvanceCallPlaced
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	if outcome != AdvanceCallPlaced {
		if outcome == AdvanceCompleted {
			s.auditCampaign(ctx, c, "", "campaign completed", "")
		}
		return AdvanceResult{Outcome: outcome}, nil
	}

	if err := s.dial(ctx, c, *claimed, callID, agentID); err != nil {
		return AdvanceResult{}, err
	}
	return AdvanceResult{Outcome: AdvanceCallPlaced, Contact: claimed, CallID: callID}, nil
}

// dial invokes the telephony provider for an already-claimed contact. On
// initiation failure the contact goes back to retry, counted against its
// attempt budget, and a delayed re-advance is armed.
func (s *Service) dial(ctx context.Context, c Campaign, ct Contact, callID, agentID string) error {
	now := s.clock().UTC()

	ag, ok, err := s.agents.Get(ctx, c.WorkspaceID, agentID)
	if err == nil && !ok {
		err = fmt.Errorf("%w: agent %s", ErrAgentMissing, agentID)
	}

	var res telephony.PlaceCallResult
	if err == nil {
		res, err = s.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
			WorkspaceID: c.WorkspaceID,
			CampaignID:  c.ID,
			CallID:      callID,
			To:          ct.Phone,
			From:        ag.CallerNumber,
			AgentID:     ag.ID,
		})
	}

	if err != nil {
		_, mErr := s.store.Mutate(ctx, c.WorkspaceID, c.ID, func(mc *Campaign) error {
			if ct.Ordinal >= len(mc.Statuses) {
				return nil
			}
			st := &mc.Statuses[ct.Ordinal]
			if st.Status != ContactStatusCalling || st.CallID != callID {
				return nil
			}
			st.Status = ContactStatusRetry
			st.CallID = ""
			st.Error = err.Error()
			st.UpdatedAt = now
			mc.UpdatedAt = now
			return nil
		})
		if mErr != nil {
			logger.From(ctx).Error("initiation rollback failed", "campaign_id", c.ID, "err", mErr)
		}
		s.armTrigger(ctx, c.WorkspaceID, c.ID, s.retryDelay(c))
		return fmt.Errorf("campaign: call initiation failed: %w", err)
	}

	_, mErr := s.store.Mutate(ctx, c.WorkspaceID, c.ID, func(mc *Campaign) error {
		if ct.Ordinal >= len(mc.Statuses) {
			return nil
		}
		st := &mc.Statuses[ct.Ordinal]
		if st.Status != ContactStatusCalling || st.CallID != callID {
			return nil
		}
		st.ProviderCallID = res.ProviderCallID
		st.UpdatedAt = now
		return nil
	})
	if mErr != nil {
		logger.From(ctx).Error("provider call id record failed", "campaign_id", c.ID, "err", mErr)
	}

	s.auditCampaign(ctx, c, "", "call placed", callID)
	return nil
}

// OnCallCompleted is the completion handler for the provider's asynchronous
// status callback. It is idempotent: the event must match a contact whose
// call id is current and whose status is still calling, otherwise it is a
// stale or duplicate delivery and is ignored.
func (s *Service) OnCallCompleted(ctx context.Context, workspaceID, campaignID, callID, outcome string, durationSeconds int) error {
	if workspaceID == "" || campaignID == "" || callID == "" {
		return ErrInvalidArgument
	}
	now := s.clock().UTC()

	var (
		matched      bool
		rec          AttemptRecord
		schedule     bool
		delay        time.Duration
		completedNow bool
	)
	c, err := s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		idx := -1
		for i := range c.Statuses {
			if c.Statuses[i].CallID == callID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil
		}
		st := &c.Statuses[idx]
		if st.Status != ContactStatusCalling {
			return nil
		}
		matched = true

		st.Outcome = outcome
		st.UpdatedAt = now
		switch {
		case retryableOutcome(outcome) && st.Attempts < s.maxAttempts(c):
			st.Status = ContactStatusRetry
		case retryableOutcome(outcome):
			st.Status = ContactStatusFailed
			st.Error = "retry attempts exhausted"
		default:
			// Success and every unclassified outcome are terminal. Failed is
			// reserved for orchestration-level failures.
			st.Status = ContactStatusCompleted
		}

		rec = AttemptRecord{
			ID:              uuid.NewString(),
			WorkspaceID:     c.WorkspaceID,
			CampaignID:      c.ID,
			CallID:          callID,
			Ordinal:         idx,
			Phone:           c.Roster[idx].Phone,
			Attempt:         st.Attempts,
			Outcome:         outcome,
			DurationSeconds: durationSeconds,
			CreatedAt:       now,
		}

		if c.Status != StatusActive {
			// Paused in the meantime; record the result but do not chain.
			c.UpdatedAt = now
			return nil
		}

		pending, retry := 0, 0
		for i := range c.Statuses {
			switch c.Statuses[i].Status {
			case ContactStatusPending:
				pending++
			case ContactStatusRetry:
				retry++
			}
		}
		switch {
		case pending > 0:
			schedule, delay = true, s.advanceDelay
		case retry > 0:
			schedule, delay = true, s.retryDelay(*c)
		default:
			c.Status = StatusCompleted
			c.CompletedAt = &now
			completedNow = true
		}
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return err
	}
	if !matched {
		logger.From(ctx).Debug("stale completion event ignored",
			"campaign_id", campaignID, "call_id", callID, "outcome", outcome)
		return nil
	}

	if s.attempts != nil {
		if err := s.attempts.AppendAttempt(ctx, rec); err != nil {
			logger.From(ctx).Error("attempt record append failed", "campaign_id", campaignID, "err", err)
		}
	}
	s.auditCampaign(ctx, c, "", "call completed: "+outcome, callID)
	if completedNow {
		s.auditCampaign(ctx, c, "", "campaign completed", "")
	}
	if schedule {
		s.armTrigger(ctx, workspaceID, campaignID, delay)
	}
	return nil
}

// Pause stops new calls from being placed. Idempotent: pausing a paused
// campaign is a no-op. A contact mid-call is reset to pending; the live call
// is allowed to finish at the provider, and its completion event no longer
// matches a referenced call id.
func (s *Service) Pause(ctx context.Context, workspaceID, campaignID, userID string) (Campaign, error) {
	if workspaceID == "" || campaignID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	now := s.clock().UTC()

	paused := false
	c, err := s.store.Mutate(ctx, workspaceID, campaignID, func(c *Campaign) error {
		if c.Status == StatusPaused {
			return nil
		}
		if c.Status != StatusActive {
			return ErrNotActive
		}
		c.Status = StatusPaused
		c.PausedAt = &now
		for i := range c.Statuses {
			if c.Statuses[i].Status == ContactStatusCalling {
				c.Statuses[i].Status = ContactStatusPending
				c.Statuses[i].CallID = ""
				c.Statuses[i].ProviderCallID = ""
				c.Statuses[i].UpdatedAt = now
			}
		}
		c.UpdatedAt = now
		paused = true
		return nil
	})
	if err != nil {
		return Campaign{}, err
	}
	if paused {
		s.auditCampaign(ctx, c, userID, "campaign paused", "")
	}
	return c, nil
}

/* ===================== READS ===================== */

// GetProgress derives aggregate progress from stored state. Pure read, safe
// to poll.
func (s *Service) GetProgress(ctx context.Context, workspaceID, campaignID string) (Progress, error) {
	c, err := s.store.Get(ctx, workspaceID, campaignID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{
		CampaignID:  c.ID,
		WorkspaceID: c.WorkspaceID,
		Status:      c.Status,
		Total:       len(c.Roster),
		StartedAt:   c.StartedAt,
		PausedAt:    c.PausedAt,
		CompletedAt: c.CompletedAt,
	}
	for i := range c.Statuses {
		switch c.Statuses[i].Status {
		case ContactStatusPending:
			p.Pending++
		case ContactStatusRetry:
			p.Retry++
		case ContactStatusCompleted:
			p.Completed++
		case ContactStatusFailed:
			p.Failed++
		case ContactStatusSkipped:
			p.Skipped++
		case ContactStatusCalling:
			p.InFlight = true
			ct := c.Roster[i]
			p.ActiveContact = &ct
		}
	}
	if len(c.Statuses) == 0 {
		// Not yet started: everything counts as pending work.
		p.Pending = len(c.Roster)
	}
	p.Remaining = p.Total - p.Completed - p.Failed - p.Skipped
	return p, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, campaignID string) (Campaign, error) {
	return s.store.Get(ctx, workspaceID, campaignID)
}

/* ===================== SWEEP BACKSTOP ===================== */

// Sweep re-arms any active campaign that has eligible work but no call in
// flight. This is the backstop for lost chain triggers: at-least-once
// delivery means a scheduled advance can vanish, and without the sweep a
// campaign would stall permanently.
func (s *Service) Sweep(ctx context.Context) error {
	refs, err := s.store.ListActiveRefs(ctx)
	if err != nil {
		return err
	}
	log := logger.From(ctx)
	for _, ref := range refs {
		c, err := s.store.Get(ctx, ref.WorkspaceID, ref.CampaignID)
		if err != nil {
			log.Error("sweep load failed", "campaign_id", ref.CampaignID, "err", err)
			continue
		}
		if c.Status != StatusActive {
			continue
		}
		inFlight, eligible := false, false
		for i := range c.Statuses {
			switch {
			case c.Statuses[i].Status == ContactStatusCalling:
				inFlight = true
			case c.Statuses[i].Status.Eligible():
				eligible = true
			}
		}
		if inFlight || !eligible {
			continue
		}
		if _, err := s.Advance(ctx, ref.WorkspaceID, ref.CampaignID); err != nil {
			log.Error("sweep advance failed", "campaign_id", ref.CampaignID, "err", err)
		}
	}
	return nil
}

/* ===================== INTERNAL ===================== */

// selectEligible returns the index of the next contact to dial: the first
// pending contact in roster order, or, when no pending remain, the first
// retry contact. -1 when neither exists.
func selectEligible(statuses []ContactCallStatus) int {
	for i := range statuses {
		if statuses[i].Status == ContactStatusPending {
			return i
		}
	}
	for i := range statuses {
		if statuses[i].Status == ContactStatusRetry {
			return i
		}
	}
	return -1
}

// retryableOutcome classifies provider outcomes that warrant another attempt.
// Everything else, including success, is terminal.
func retryableOutcome(outcome string) bool {
	switch outcome {
	case "no_answer", "voicemail":
		return true
	default:
		return false
	}
}

func (s *Service) maxAttempts(c *Campaign) int {
	if c.Retry.MaxAttempts > 0 {
		return c.Retry.MaxAttempts
	}
	return s.defaultRetry.MaxAttempts
}

func (s *Service) retryDelay(c Campaign) time.Duration {
	if c.Retry.RetryDelay > 0 {
		return c.Retry.RetryDelay
	}
	return s.defaultRetry.RetryDelay
}

func (s *Service) armTrigger(ctx context.Context, workspaceID, campaignID string, delay time.Duration) {
	if s.trigger == nil {
		return
	}
	if err := s.trigger.AdvanceAfter(ctx, workspaceID, campaignID, delay); err != nil {
		// Non-fatal: the sweep backstop repairs lost triggers.
		logger.From(ctx).Error("advance trigger failed", "campaign_id", campaignID, "err", err)
	}
}

func (s *Service) auditCampaign(ctx context.Context, c Campaign, actorUserID, message, callID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogCampaignEvent(ctx, c.WorkspaceID, actorUserID, c.ID, callID, message); err != nil {
		logger.From(ctx).Debug("audit append failed", "campaign_id", c.ID, "err", err)
	}
}
