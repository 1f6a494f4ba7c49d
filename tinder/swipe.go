package tinder

import (
	"context"
	"fmt"

	"github.com/petal-labs/swipe/core"
)

// Action is a swipe direction.
type Action int

const (
	ActionLike Action = iota
	ActionPass
	ActionSuperLike
)

func (a Action) String() string {
	switch a {
	case ActionLike:
		return "like"
	case ActionPass:
		return "pass"
	case ActionSuperLike:
		return "superlike"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Request returns the endpoint for swiping on userID.
func (a Action) Request(userID string) core.LogicalRequest {
	switch a {
	case ActionPass:
		return PassRequest(userID)
	case ActionSuperLike:
		return SuperLikeRequest(userID)
	default:
		return LikeRequest(userID)
	}
}

// SwipeDecision is one swipe to perform.
type SwipeDecision struct {
	UserID string
	Action Action
}

// SwipeResult is the outcome of one SwipeDecision.
type SwipeResult struct {
	SwipeDecision
	Result   LikeResult
	Attempts int
	Err      error
}

// Swipe performs decisions concurrently, bounded by the client's
// concurrency, and returns results in the same order. One failed swipe does
// not affect the others. Cancelling ctx stops new swipes; those not started
// fail with core.ErrCancelled.
func (c *Client) Swipe(ctx context.Context, decisions []SwipeDecision) []SwipeResult {
	reqs := make([]core.LogicalRequest, len(decisions))
	for i, d := range decisions {
		reqs[i] = d.Action.Request(d.UserID)
	}

	items := core.RunBatch(ctx, c.dispatcher, reqs, c.batchOptions())

	results := make([]SwipeResult, len(items))
	for i, it := range items {
		results[i] = SwipeResult{SwipeDecision: decisions[i], Attempts: it.Outcome.Attempts}
		results[i].Err = it.Outcome.Decode(&results[i].Result)
	}
	return results
}

// LikeAll likes every user in ids.
func (c *Client) LikeAll(ctx context.Context, ids []string) []SwipeResult {
	return c.Swipe(ctx, decisionsFor(ids, ActionLike))
}

// PassAll passes on every user in ids.
func (c *Client) PassAll(ctx context.Context, ids []string) []SwipeResult {
	return c.Swipe(ctx, decisionsFor(ids, ActionPass))
}

func decisionsFor(ids []string, a Action) []SwipeDecision {
	out := make([]SwipeDecision, len(ids))
	for i, id := range ids {
		out[i] = SwipeDecision{UserID: id, Action: a}
	}
	return out
}
