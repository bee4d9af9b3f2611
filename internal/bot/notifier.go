package bot

import (
	"context"
	"sync"

	"racebot/internal/domain"
	"racebot/internal/transport"
	"racebot/pkg/logx"
	"racebot/pkg/tgui"
)

// previewLimit keeps admin notifications short; the full text is available
// through the pending list.
const previewLimit = 500

// Notifier pushes freshly generated pending items to every configured admin,
// with inline approve/cancel buttons. Send failures are logged and dropped;
// admins can always reach the item via /admin.
type Notifier struct {
	mu     sync.RWMutex
	admins []int64

	adapter transport.Adapter
	log     logx.Logger
}

func NewNotifier(adminIDs []int64, adapter transport.Adapter, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	n := &Notifier{adapter: adapter, log: log}
	n.SetAdmins(adminIDs)
	return n
}

// SetAdmins replaces the notification list; called on config reload.
func (n *Notifier) SetAdmins(ids []int64) {
	cp := make([]int64, len(ids))
	copy(cp, ids)
	n.mu.Lock()
	n.admins = cp
	n.mu.Unlock()
}

func (n *Notifier) NotifyPending(ctx context.Context, item domain.ContentItem) {
	n.mu.RLock()
	admins := n.admins
	n.mu.RUnlock()

	body := item.Body
	if r := []rune(body); len(r) > previewLimit {
		body = string(r[:previewLimit]) + "…"
	}
	text := T("admin.new_pending", defaultLang, "key", item.Key.String()) + "\n\n" + body
	markup := tgui.NewInline().Row(decisionRow(item.Key)...).Markup()

	for _, id := range admins {
		opt := &transport.SendOptions{ReplyMarkupAdapter: markup}
		if _, err := n.adapter.SendText(ctx, transport.ChatTarget{ChatID: id}, text, opt); err != nil {
			n.log.Warn("admin notification failed",
				logx.Int64("admin", id),
				logx.String("content", item.Key.String()),
				logx.Err(err))
		}
	}
}
