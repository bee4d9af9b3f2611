package content

import (
	"context"
	"fmt"
	"time"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

type EventSource interface {
	NextUpcomingEvent(ctx context.Context) (domain.Event, bool, error)
	LastFinishedEvent(ctx context.Context) (domain.Event, bool, error)
}

type HeadlineSource interface {
	Headlines(ctx context.Context) ([]string, error)
}

// PendingNotifier is told about every item a job freshly generated, so admins
// can approve it. Notification failures are the notifier's problem.
type PendingNotifier interface {
	NotifyPending(ctx context.Context, item domain.ContentItem)
}

// Jobs holds the scheduled job bodies. The pre-race job is gated by the time
// window; the post-race job is gated only by Generate's idempotency over the
// most recently finished event.
type Jobs struct {
	events    EventSource
	pipeline  *Pipeline
	headlines HeadlineSource
	notifier  PendingNotifier
	languages []string
	log       logx.Logger
	now       func() time.Time
}

func NewJobs(events EventSource, pipeline *Pipeline, headlines HeadlineSource, notifier PendingNotifier, languages []string, log logx.Logger) *Jobs {
	if len(languages) == 0 {
		languages = []string{"ru", "en"}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Jobs{
		events:    events,
		pipeline:  pipeline,
		headlines: headlines,
		notifier:  notifier,
		languages: languages,
		log:       log,
		now:       time.Now,
	}
}

// PreRace generates pre-race content when the next upcoming event is inside
// the pre-race window. Outside the window it does nothing.
func (j *Jobs) PreRace(ctx context.Context) error {
	ev, ok, err := j.events.NextUpcomingEvent(ctx)
	if err != nil {
		return fmt.Errorf("next upcoming event: %w", err)
	}
	if !ok {
		return nil
	}
	if !ShouldRunPreRace(ev.StartTime, j.now()) {
		return nil
	}
	return j.generateAll(ctx, ev, domain.KindPreRace)
}

// PostRace generates post-race content for the most recently finished event.
func (j *Jobs) PostRace(ctx context.Context) error {
	ev, ok, err := j.events.LastFinishedEvent(ctx)
	if err != nil {
		return fmt.Errorf("last finished event: %w", err)
	}
	if !ok {
		return nil
	}
	return j.generateAll(ctx, ev, domain.KindPostRace)
}

// Force runs the job body for kind without the time-window gate. Used by the
// admin force-generate action.
func (j *Jobs) Force(ctx context.Context, kind domain.ContentKind) error {
	var (
		ev  domain.Event
		ok  bool
		err error
	)
	switch kind {
	case domain.KindPreRace:
		ev, ok, err = j.events.NextUpcomingEvent(ctx)
	case domain.KindPostRace:
		ev, ok, err = j.events.LastFinishedEvent(ctx)
	default:
		return fmt.Errorf("unknown content kind %q", kind)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no event for %s generation: %w", kind, domain.ErrNotFound)
	}
	return j.generateAll(ctx, ev, kind)
}

// generateAll runs Generate for every configured language. One language
// failing does not stop the others.
func (j *Jobs) generateAll(ctx context.Context, ev domain.Event, kind domain.ContentKind) error {
	var headlines []string
	if j.headlines != nil {
		hs, err := j.headlines.Headlines(ctx)
		if err != nil {
			j.log.Warn("headlines unavailable", logx.Err(err))
		} else {
			headlines = hs
		}
	}

	var firstErr error
	for _, lang := range j.languages {
		item, created, err := j.pipeline.Generate(ctx, ev, kind, lang, headlines)
		if err != nil {
			j.log.Warn("generate failed",
				logx.String("event", ev.ID),
				logx.String("kind", string(kind)),
				logx.String("lang", lang),
				logx.Err(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if created && j.notifier != nil {
			j.notifier.NotifyPending(ctx, item)
		}
	}
	return firstErr
}
