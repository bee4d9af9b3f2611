// Package bot routes incoming transport updates to command and callback
// handlers. Callback data is decoded into typed actions at the boundary;
// handlers never touch raw callback strings.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"racebot/internal/admin"
	"racebot/internal/bingo"
	"racebot/internal/content"
	"racebot/internal/domain"
	"racebot/internal/transport"
	"racebot/pkg/logx"
)

const defaultLang = "ru"

type RecipientStore interface {
	GetRecipient(ctx context.Context, id int64) (domain.Recipient, bool, error)
	UpsertRecipient(ctx context.Context, id int64, lang string) error
}

type EventSource interface {
	NextUpcomingEvent(ctx context.Context) (domain.Event, bool, error)
	LastFinishedEvent(ctx context.Context) (domain.Event, bool, error)
}

type Router struct {
	adapter  transport.Adapter
	store    RecipientStore
	events   EventSource
	pipeline *content.Pipeline
	gateway  *admin.Gateway
	bingo    *bingo.Engine
	log      logx.Logger
}

func NewRouter(adapter transport.Adapter, store RecipientStore, events EventSource,
	pipeline *content.Pipeline, gateway *admin.Gateway, engine *bingo.Engine, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		adapter:  adapter,
		store:    store,
		events:   events,
		pipeline: pipeline,
		gateway:  gateway,
		bingo:    engine,
		log:      log,
	}
}

// PublishCommandMenu registers the slash commands with the transport's
// command menu, when the adapter supports one.
func (r *Router) PublishCommandMenu(ctx context.Context) error {
	u, ok := r.adapter.(transport.CommandMenuUpdater)
	if !ok {
		return nil
	}
	return u.UpdateMenuCommands(ctx, []transport.BotCommand{
		{Command: "start", Description: "Main menu"},
		{Command: "admin", Description: "Admin panel"},
	})
}

// DispatchLoop consumes updates until ctx is cancelled or the channel
// closes. Handler errors are logged; nothing here can stop the loop.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan transport.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			r.dispatch(ctx, u)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, u transport.Update) {
	var (
		err    error
		chatID int64
		fromID int64
	)
	switch u.Kind {
	case transport.UpdateMessage:
		if u.Message != nil {
			chatID, fromID = u.Message.ChatID, u.Message.FromID
			err = r.handleMessage(ctx, *u.Message)
		}
	case transport.UpdateCallback:
		if u.Callback != nil {
			chatID, fromID = u.Callback.ChatID, u.Callback.FromID
			err = r.handleCallback(ctx, *u.Callback)
		}
	}
	if err == nil {
		return
	}
	r.log.Warn("update handling failed", logx.String("kind", string(u.Kind)), logx.Err(err))

	// The user still gets a reply; a silently dead button looks like a
	// frozen bot.
	if chatID == 0 {
		return
	}
	lang := r.userLang(ctx, fromID)
	if sendErr := r.send(ctx, chatID, T("error.generic", lang), nil); sendErr != nil {
		r.log.Debug("error reply failed", logx.Err(sendErr))
	}
}

// userLang returns the stored language of the user, defaulting to ru.
func (r *Router) userLang(ctx context.Context, userID int64) string {
	rec, ok, err := r.store.GetRecipient(ctx, userID)
	if err != nil || !ok || rec.Lang == "" {
		return defaultLang
	}
	return rec.Lang
}

func (r *Router) send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	opt := &transport.SendOptions{}
	if markup != nil {
		opt.ReplyMarkupAdapter = markup
	}
	_, err := r.adapter.SendText(ctx, transport.ChatTarget{ChatID: chatID}, text, opt)
	return err
}

func (r *Router) edit(ctx context.Context, cb transport.Callback, text string, markup *tele.ReplyMarkup) error {
	opt := &transport.SendOptions{}
	if markup != nil {
		opt.ReplyMarkupAdapter = markup
	}
	ref := transport.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	return r.adapter.EditText(ctx, ref, text, opt)
}

func (r *Router) handleMessage(ctx context.Context, m transport.Message) error {
	cmd := command(m.Text)
	switch cmd {
	case "/start":
		return r.onStart(ctx, m)
	case "/admin":
		return r.onAdminCommand(ctx, m)
	}
	return nil
}

// command extracts the leading slash command, dropping the @botname suffix.
func command(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}

// onStart shows the main menu for known users and the language picker for
// new ones.
func (r *Router) onStart(ctx context.Context, m transport.Message) error {
	rec, ok, err := r.store.GetRecipient(ctx, m.FromID)
	if err != nil {
		return err
	}
	if ok && rec.Lang != "" {
		return r.send(ctx, m.ChatID, T("menu.welcome", rec.Lang), mainMenuMarkup(rec.Lang))
	}
	return r.send(ctx, m.ChatID, T("lang.choose", defaultLang), languageMarkup())
}

func (r *Router) onAdminCommand(ctx context.Context, m transport.Message) error {
	lang := r.userLang(ctx, m.FromID)
	if !r.gateway.IsAdmin(m.FromID) {
		return r.send(ctx, m.ChatID, T("admin.denied", lang), nil)
	}
	return r.send(ctx, m.ChatID, T("admin.panel", lang), adminMenuMarkup())
}

func (r *Router) handleCallback(ctx context.Context, cb transport.Callback) error {
	if err := r.adapter.AnswerCallback(ctx, cb.ID, ""); err != nil {
		r.log.Debug("answer callback failed", logx.Err(err))
	}

	action, err := decodeCallback(cb.Data)
	if err != nil {
		r.log.Warn("callback dropped", logx.String("data", cb.Data), logx.Err(err))
		return nil
	}

	lang := r.userLang(ctx, cb.FromID)
	switch a := action.(type) {
	case menuOpen:
		return r.onMenu(ctx, cb, lang, a.Screen)
	case langSelect:
		return r.onLangSelect(ctx, cb, a.Lang)
	case bingoToggle:
		return r.onBingoToggle(ctx, cb, lang, a.CellID)
	case bingoFinish:
		return r.onBingoFinish(ctx, cb, lang)
	case adminList:
		return r.onAdminList(ctx, cb, lang, a.Kind)
	case adminDecide:
		return r.onAdminDecide(ctx, cb, lang, a)
	case adminGenerate:
		return r.onAdminGenerate(ctx, cb, lang, a.Kind)
	}
	return nil
}

func (r *Router) onMenu(ctx context.Context, cb transport.Callback, lang, screen string) error {
	switch screen {
	case "main":
		return r.edit(ctx, cb, T("menu.welcome", lang), mainMenuMarkup(lang))
	case "language":
		return r.edit(ctx, cb, T("lang.choose", lang), languageMarkup())
	case "pre_race":
		return r.showContent(ctx, cb, lang, domain.KindPreRace)
	case "post_race":
		return r.showContent(ctx, cb, lang, domain.KindPostRace)
	case "bingo":
		return r.showBingoCard(ctx, cb, lang)
	}
	return nil
}

// showContent renders the published item of the given kind for the user's
// language, or a coming-soon placeholder.
func (r *Router) showContent(ctx context.Context, cb transport.Callback, lang string, kind domain.ContentKind) error {
	comingSoon := "menu.pre_race_coming_soon"
	if kind == domain.KindPostRace {
		comingSoon = "menu.post_race_coming_soon"
	}

	ev, ok, err := r.contentEvent(ctx, kind)
	if err != nil {
		return err
	}
	if !ok {
		return r.edit(ctx, cb, T(comingSoon, lang), nil)
	}

	key, err := domain.NewContentKey(ev.ID, kind, lang)
	if err != nil {
		return err
	}
	item, ok, err := r.pipeline.Fetch(ctx, key)
	if err != nil {
		return err
	}
	if !ok || item.Status != domain.StatusPublished {
		return r.edit(ctx, cb, T(comingSoon, lang), nil)
	}
	return r.edit(ctx, cb, item.Body, contentCTAMarkup(kind, lang))
}

func (r *Router) contentEvent(ctx context.Context, kind domain.ContentKind) (domain.Event, bool, error) {
	if kind == domain.KindPostRace {
		return r.events.LastFinishedEvent(ctx)
	}
	return r.events.NextUpcomingEvent(ctx)
}

func (r *Router) onLangSelect(ctx context.Context, cb transport.Callback, lang string) error {
	if err := r.store.UpsertRecipient(ctx, cb.FromID, lang); err != nil {
		return err
	}
	return r.edit(ctx, cb, T("menu.welcome", lang), mainMenuMarkup(lang))
}

func (r *Router) showBingoCard(ctx context.Context, cb transport.Callback, lang string) error {
	ev, ok, err := r.events.NextUpcomingEvent(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return r.edit(ctx, cb, T("bingo.no_race", lang), nil)
	}

	tpl, err := r.bingo.GetOrCreateTemplate(ctx, ev, lang)
	if err != nil {
		return err
	}
	st, err := r.bingo.State(ctx, ev.ID, cb.FromID)
	if err != nil {
		return err
	}
	text := T("bingo.title", lang, "race_name", ev.Name)
	return r.edit(ctx, cb, text, bingoMarkup(tpl, st, lang))
}

func (r *Router) onBingoToggle(ctx context.Context, cb transport.Callback, lang, cellID string) error {
	ev, ok, err := r.events.NextUpcomingEvent(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return r.edit(ctx, cb, T("bingo.no_race", lang), nil)
	}

	st, err := r.bingo.Toggle(ctx, ev.ID, cb.FromID, cellID)
	if err != nil {
		return err
	}
	tpl, err := r.bingo.GetOrCreateTemplate(ctx, ev, lang)
	if err != nil {
		return err
	}
	text := T("bingo.title", lang, "race_name", ev.Name)
	return r.edit(ctx, cb, text, bingoMarkup(tpl, st, lang))
}

func (r *Router) onBingoFinish(ctx context.Context, cb transport.Callback, lang string) error {
	ev, ok, err := r.events.NextUpcomingEvent(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return r.edit(ctx, cb, T("bingo.no_race", lang), nil)
	}
	st, err := r.bingo.State(ctx, ev.ID, cb.FromID)
	if err != nil {
		return err
	}
	text := T("bingo.finish_result", lang,
		"checked", strconv.Itoa(st.CompletionCount()),
		"total", strconv.Itoa(domain.TemplateSize),
		"race_name", ev.Name)
	return r.edit(ctx, cb, text, nil)
}

func (r *Router) onAdminList(ctx context.Context, cb transport.Callback, lang string, kind domain.ContentKind) error {
	items, err := r.gateway.ListPending(ctx, cb.FromID, kind)
	if errors.Is(err, domain.ErrUnauthorized) {
		return r.edit(ctx, cb, T("admin.denied", lang), nil)
	}
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return r.edit(ctx, cb, T("admin.no_pending", lang), nil)
	}

	var b strings.Builder
	b.WriteString(T("admin.pending_header", lang, "kind", string(kind)))
	b.WriteString("\n\n")
	for _, item := range items {
		b.WriteString(item.Key.EventID)
		b.WriteString(" (")
		b.WriteString(item.Key.Lang)
		b.WriteString(")\n")
	}
	return r.edit(ctx, cb, b.String(), pendingListMarkup(items))
}

func (r *Router) onAdminDecide(ctx context.Context, cb transport.Callback, lang string, a adminDecide) error {
	err := r.gateway.Decide(ctx, cb.FromID, a.Action, a.Key)
	if errors.Is(err, domain.ErrUnauthorized) {
		return r.edit(ctx, cb, T("admin.denied", lang), nil)
	}
	if errors.Is(err, domain.ErrNotFound) {
		// Another admin already cancelled it; the button is stale.
		return r.edit(ctx, cb, T("admin.gone", lang), nil)
	}
	if err != nil {
		return err
	}
	msg := "admin.approved"
	if a.Action == admin.ActionCancel {
		msg = "admin.cancelled"
	}
	return r.edit(ctx, cb, T(msg, lang), nil)
}

func (r *Router) onAdminGenerate(ctx context.Context, cb transport.Callback, lang string, kind domain.ContentKind) error {
	err := r.gateway.ForceGenerate(ctx, cb.FromID, kind)
	if errors.Is(err, domain.ErrUnauthorized) {
		return r.edit(ctx, cb, T("admin.denied", lang), nil)
	}
	if err != nil {
		return err
	}
	return r.edit(ctx, cb, T("admin.generating", lang), nil)
}

