package session

import (
	"sync"
	"time"

	"github.com/mpilhlt/filmstudio/internal/models"
)

// Notifier receives the notification emitted when a submission completes.
// Notify runs on the goroutine that finished the round trip, after the form
// lock is released, so it may call back into the form.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Notifiers fans a notification out to several notifiers in order.
func Notifiers(ns ...Notifier) Notifier {
	return NotifierFunc(func(n models.Notification) {
		for _, x := range ns {
			if x != nil {
				x.Notify(n)
			}
		}
	})
}

// Inbox keeps the most recent notifications of a form.
type Inbox struct {
	mu    sync.Mutex
	max   int
	items []models.Notification
}

const defaultInboxSize = 20

// NewInbox returns an Inbox keeping at most max notifications. A max of zero
// or less keeps the default of 20.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = defaultInboxSize
	}
	return &Inbox{max: max}
}

func (i *Inbox) Notify(n models.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, n)
	if len(i.items) > i.max {
		i.items = i.items[len(i.items)-i.max:]
	}
}

// Items returns a copy of the stored notifications, oldest first.
func (i *Inbox) Items() []models.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]models.Notification, len(i.items))
	copy(out, i.items)
	return out
}

// Notifications shown to the user
var (
	storyboardSucceeded = models.Notification{
		Variant:     models.VariantDefault,
		Title:       "Storyboard Generated",
		Description: "AI has successfully generated the storyboard.",
	}
	storyboardFailed = models.Notification{
		Variant:     models.VariantDestructive,
		Title:       "Error",
		Description: "Failed to generate storyboard. Please try again.",
	}
	modelSucceeded = models.Notification{
		Variant:     models.VariantDefault,
		Title:       "3D Model Generated",
		Description: "AI has successfully generated the 3D model assets.",
	}
	modelFailed = models.Notification{
		Variant:     models.VariantDestructive,
		Title:       "Error",
		Description: "Failed to generate 3D model. Please try again.",
	}
)

// FailureMessage returns the generic failure text for a kind of generation.
func FailureMessage(kind string) string {
	if kind == models.KindModel {
		return modelFailed.Description
	}
	return storyboardFailed.Description
}
