// Package content implements the lifecycle of generated race posts: draft →
// pending_approval → approved → published, plus deletion via cancel. All
// operations are keyed by (event, kind, lang) and idempotent where the
// lifecycle allows it.
package content

import (
	"context"
	"fmt"
	"time"

	"racebot/internal/domain"
	"racebot/internal/fanout"
	"racebot/pkg/logx"
)

type Store interface {
	GetContent(ctx context.Context, key domain.ContentKey) (domain.ContentItem, bool, error)
	UpsertContent(ctx context.Context, item domain.ContentItem) error
	SetContentStatus(ctx context.Context, key domain.ContentKey, status domain.ContentStatus) error
	DeleteContent(ctx context.Context, key domain.ContentKey) error
	PendingContent(ctx context.Context, kind domain.ContentKind, limit int) ([]domain.ContentItem, error)
}

type Generator interface {
	GenerateContent(ctx context.Context, kind domain.ContentKind, ev domain.Event, lang string, headlines []string) (string, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, item domain.ContentItem) (fanout.Result, error)
}

type Pipeline struct {
	store     Store
	generator Generator
	fanout    Broadcaster
	log       logx.Logger
	now       func() time.Time
}

func NewPipeline(store Store, generator Generator, fan Broadcaster, log logx.Logger) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pipeline{
		store:     store,
		generator: generator,
		fanout:    fan,
		log:       log,
		now:       time.Now,
	}
}

func placeholderBody(lang string) string {
	if lang == "ru" {
		return "Ошибка генерации контента"
	}
	return "Content generation error"
}

// Generate produces the item for (ev, kind, lang), or returns the existing
// one untouched when it already left draft. A generator failure degrades to a
// placeholder body; the item still reaches pending_approval so an admin sees
// it instead of it silently vanishing. The bool reports whether this call did
// the generation.
func (p *Pipeline) Generate(ctx context.Context, ev domain.Event, kind domain.ContentKind, lang string, headlines []string) (domain.ContentItem, bool, error) {
	key, err := domain.NewContentKey(ev.ID, kind, lang)
	if err != nil {
		return domain.ContentItem{}, false, err
	}

	existing, ok, err := p.store.GetContent(ctx, key)
	if err != nil {
		return domain.ContentItem{}, false, err
	}
	if ok && existing.Status != domain.StatusDraft {
		return existing, false, nil
	}

	body, err := p.generator.GenerateContent(ctx, kind, ev, lang, headlines)
	if err != nil {
		p.log.Warn("generation degraded to placeholder",
			logx.String("content", key.String()), logx.Err(err))
		body = placeholderBody(lang)
	}

	item := domain.ContentItem{Key: key, Status: domain.StatusDraft, Body: body}
	if err := p.store.UpsertContent(ctx, item); err != nil {
		return domain.ContentItem{}, false, err
	}
	if err := p.store.SetContentStatus(ctx, key, domain.StatusPendingApproval); err != nil {
		return domain.ContentItem{}, false, err
	}
	item.Status = domain.StatusPendingApproval

	p.log.Info("content generated",
		logx.String("content", key.String()),
		logx.Int("chars", len(item.Body)))
	return item, true, nil
}

// Approve moves a pending item to approved. Missing items and items already
// past pending are a no-op, not an error.
func (p *Pipeline) Approve(ctx context.Context, key domain.ContentKey) error {
	item, ok, err := p.store.GetContent(ctx, key)
	if err != nil {
		return err
	}
	if !ok || item.Status != domain.StatusPendingApproval {
		return nil
	}
	return p.store.SetContentStatus(ctx, key, domain.StatusApproved)
}

// Publish transitions an approved or pending item to published and triggers
// fan-out exactly once. Re-publishing an already published item is a no-op
// without a second fan-out.
func (p *Pipeline) Publish(ctx context.Context, key domain.ContentKey) (domain.ContentItem, error) {
	item, ok, err := p.store.GetContent(ctx, key)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if !ok {
		return domain.ContentItem{}, fmt.Errorf("publish %s: %w", key, domain.ErrNotFound)
	}
	switch item.Status {
	case domain.StatusPublished:
		return item, nil
	case domain.StatusApproved, domain.StatusPendingApproval:
	default:
		return domain.ContentItem{}, fmt.Errorf("publish %s: cannot publish from %s", key, item.Status)
	}

	if err := p.store.SetContentStatus(ctx, key, domain.StatusPublished); err != nil {
		return domain.ContentItem{}, err
	}
	item.Status = domain.StatusPublished

	if p.fanout != nil {
		res, err := p.fanout.Broadcast(ctx, item)
		if err != nil {
			// Status already flipped; publication stands even when the
			// broadcast run was cut short.
			p.log.Warn("broadcast incomplete",
				logx.String("content", key.String()),
				logx.Int("delivered", res.Delivered),
				logx.Int("failed", res.Failed),
				logx.Err(err))
		}
	}
	return item, nil
}

// Cancel removes the item regardless of its status. Already delivered
// messages are not retracted.
func (p *Pipeline) Cancel(ctx context.Context, key domain.ContentKey) error {
	return p.store.DeleteContent(ctx, key)
}

func (p *Pipeline) Fetch(ctx context.Context, key domain.ContentKey) (domain.ContentItem, bool, error) {
	return p.store.GetContent(ctx, key)
}

func (p *Pipeline) Pending(ctx context.Context, kind domain.ContentKind, limit int) ([]domain.ContentItem, error) {
	return p.store.PendingContent(ctx, kind, limit)
}
