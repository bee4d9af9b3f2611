// Package admin gates moderation actions behind the configured allow-list.
package admin

import (
	"context"
	"fmt"
	"sync"

	"racebot/internal/content"
	"racebot/internal/domain"
	"racebot/pkg/logx"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionCancel  Action = "cancel"
)

type Gateway struct {
	mu     sync.RWMutex
	admins map[int64]bool

	pipeline *content.Pipeline
	jobs     *content.Jobs
	pageSize int
	log      logx.Logger
}

func New(adminIDs []int64, pipeline *content.Pipeline, jobs *content.Jobs, pageSize int, log logx.Logger) *Gateway {
	if pageSize <= 0 {
		pageSize = 10
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	g := &Gateway{
		pipeline: pipeline,
		jobs:     jobs,
		pageSize: pageSize,
		log:      log,
	}
	g.SetAdmins(adminIDs)
	return g
}

// SetAdmins replaces the allow-list; called on config reload.
func (g *Gateway) SetAdmins(ids []int64) {
	admins := make(map[int64]bool, len(ids))
	for _, id := range ids {
		admins[id] = true
	}
	g.mu.Lock()
	g.admins = admins
	g.mu.Unlock()
}

func (g *Gateway) IsAdmin(userID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admins[userID]
}

func (g *Gateway) authorize(userID int64) error {
	if !g.IsAdmin(userID) {
		return fmt.Errorf("user %d: %w", userID, domain.ErrUnauthorized)
	}
	return nil
}

// ListPending returns pending items of the given kind, oldest first, capped
// at the configured page size.
func (g *Gateway) ListPending(ctx context.Context, actorID int64, kind domain.ContentKind) ([]domain.ContentItem, error) {
	if err := g.authorize(actorID); err != nil {
		return nil, err
	}
	return g.pipeline.Pending(ctx, kind, g.pageSize)
}

// Decide applies a moderation decision. Approve is fused with publish: the
// item goes straight from pending to published with fan-out. Cancel removes
// the item entirely.
func (g *Gateway) Decide(ctx context.Context, actorID int64, action Action, key domain.ContentKey) error {
	if err := g.authorize(actorID); err != nil {
		return err
	}
	switch action {
	case ActionApprove:
		if err := g.pipeline.Approve(ctx, key); err != nil {
			return err
		}
		if _, err := g.pipeline.Publish(ctx, key); err != nil {
			return err
		}
		g.log.Info("content approved",
			logx.String("content", key.String()),
			logx.Int64("admin", actorID))
		return nil
	case ActionCancel:
		if err := g.pipeline.Cancel(ctx, key); err != nil {
			return err
		}
		g.log.Info("content cancelled",
			logx.String("content", key.String()),
			logx.Int64("admin", actorID))
		return nil
	default:
		return fmt.Errorf("unknown admin action %q", action)
	}
}

// ForceGenerate runs the generation job for kind regardless of the time
// window.
func (g *Gateway) ForceGenerate(ctx context.Context, actorID int64, kind domain.ContentKind) error {
	if err := g.authorize(actorID); err != nil {
		return err
	}
	g.log.Info("forced generation",
		logx.String("kind", string(kind)),
		logx.Int64("admin", actorID))
	return g.jobs.Force(ctx, kind)
}
