package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTriggersKey = "campaign:advance:due"

// RedisTrigger stores delayed "advance campaign" triggers in a Redis sorted
// set scored by due time (unix milliseconds).
//
// Delivery contract: fire-and-forget, at-least-once, no ordering guarantee.
// The member encodes workspace and campaign, so re-arming an already armed
// campaign collapses to one entry; ZADD LT keeps the earlier due time.
type RedisTrigger struct {
	rdb   *redis.Client
	key   string
	clock func() time.Time
}

func NewRedisTrigger(rdb *redis.Client) *RedisTrigger {
	return &RedisTrigger{rdb: rdb, key: defaultTriggersKey, clock: time.Now}
}

func (t *RedisTrigger) AdvanceAfter(ctx context.Context, workspaceID, campaignID string, delay time.Duration) error {
	if workspaceID == "" || campaignID == "" {
		return fmt.Errorf("scheduler: workspace_id and campaign_id required")
	}
	if delay < 0 {
		delay = 0
	}
	due := t.clock().Add(delay)
	return t.rdb.ZAddLT(ctx, t.key, redis.Z{
		Score:  float64(due.UnixMilli()),
		Member: encodeMember(workspaceID, campaignID),
	}).Err()
}

var popDueScript = redis.NewScript(`
-- KEYS[1] = due zset
-- ARGV[1] = now (unix ms)
-- ARGV[2] = max batch size
--
-- Atomically removes and returns members whose score is due.
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, m in ipairs(due) do
  redis.call('ZREM', KEYS[1], m)
end
return due
`)

// PopDue atomically claims up to max due triggers. A claimed trigger that the
// process then fails to act on is lost; the sweep backstop covers that gap.
func (t *RedisTrigger) PopDue(ctx context.Context, max int) ([]Due, error) {
	if max <= 0 {
		max = 50
	}
	now := t.clock().UnixMilli()
	members, err := popDueScript.Run(ctx, t.rdb, []string{t.key}, now, max).StringSlice()
	if err != nil {
		return nil, err
	}
	out := make([]Due, 0, len(members))
	for _, m := range members {
		ws, camp, ok := decodeMember(m)
		if !ok {
			continue
		}
		out = append(out, Due{WorkspaceID: ws, CampaignID: camp})
	}
	return out, nil
}

// Due is one claimed trigger.
type Due struct {
	WorkspaceID string
	CampaignID  string
}

func encodeMember(workspaceID, campaignID string) string {
	return workspaceID + "|" + campaignID
}

func decodeMember(m string) (workspaceID, campaignID string, ok bool) {
	i := strings.IndexByte(m, '|')
	if i <= 0 || i == len(m)-1 {
		return "", "", false
	}
	return m[:i], m[i+1:], true
}
