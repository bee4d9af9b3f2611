// Package fanout delivers a published content item to every recipient with a
// matching language. Delivery is sequential and rate limited; one failing
// recipient never stops the rest of the run.
package fanout

import (
	"context"

	"golang.org/x/time/rate"

	"racebot/internal/domain"
	"racebot/internal/transport"
	"racebot/pkg/logx"
)

type Result struct {
	Delivered int
	Failed    int
}

type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
}

type RecipientSource interface {
	RecipientsByLang(ctx context.Context, lang string) ([]domain.Recipient, error)
}

// MarkupFunc builds the call-to-action keyboard attached to every delivered
// message. A nil func or nil return sends plain text.
type MarkupFunc func(item domain.ContentItem) any

type Config struct {
	RatePerSecond float64
	Burst         int
}

type Service struct {
	sender     Sender
	recipients RecipientSource
	markup     MarkupFunc
	limiter    *rate.Limiter
	log        logx.Logger
}

func New(cfg Config, sender Sender, recipients RecipientSource, markup MarkupFunc, log logx.Logger) *Service {
	if cfg.RatePerSecond <= 0 {
		// Telegram allows ~30 messages/s to distinct chats; stay well under.
		cfg.RatePerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		sender:     sender,
		recipients: recipients,
		markup:     markup,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		log:        log,
	}
}

// Broadcast sends item to every recipient whose language matches the item's.
// The recipient set is captured once at call time. An error is returned only
// when the run could not proceed at all; per-recipient failures are counted.
func (s *Service) Broadcast(ctx context.Context, item domain.ContentItem) (Result, error) {
	recs, err := s.recipients.RecipientsByLang(ctx, item.Key.Lang)
	if err != nil {
		return Result{}, err
	}

	var markup any
	if s.markup != nil {
		markup = s.markup(item)
	}
	opts := &transport.SendOptions{ReplyMarkupAdapter: markup}

	var res Result
	for _, r := range recs {
		if err := s.limiter.Wait(ctx); err != nil {
			// Context gone; report what was achieved so far.
			return res, err
		}
		if _, err := s.sender.SendText(ctx, transport.ChatTarget{ChatID: r.ID}, item.Body, opts); err != nil {
			res.Failed++
			s.log.Warn("delivery failed",
				logx.String("content", item.Key.String()),
				logx.Int64("recipient", r.ID),
				logx.Err(err))
			continue
		}
		res.Delivered++
	}

	s.log.Info("broadcast finished",
		logx.String("content", item.Key.String()),
		logx.Int("delivered", res.Delivered),
		logx.Int("failed", res.Failed))
	return res, nil
}
