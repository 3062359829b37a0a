package session

import (
	"context"
	"net/mail"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
)

// Subscribe registers email for alerts about company and records an
// "Alert activated" notification. Subscriptions are append-only; the same
// pair may be registered twice.
func (c *Controller) Subscribe(ctx context.Context, company, email string) (model.Subscription, error) {
	company = strings.TrimSpace(company)
	email = strings.TrimSpace(email)
	if company == "" {
		return model.Subscription{}, eris.Wrap(intel.ErrValidation, "session: company name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Subscription{}, eris.Wrapf(intel.ErrValidation, "session: invalid email %q", email)
	}

	c.persist.Lock()
	defer c.persist.Unlock()

	sub := model.Subscription{CompanyName: company, Email: email}
	note := model.NewNotification(model.SubscriptionNotice(company), c.nowFunc())

	c.mu.Lock()
	c.subscriptions = append(slices.Clone(c.subscriptions), sub)
	c.notifications = append([]model.Notification{note}, c.notifications...)
	subs := slices.Clone(c.subscriptions)
	notes := slices.Clone(c.notifications)
	c.mu.Unlock()

	if err := c.store.SaveSubscriptions(ctx, subs); err != nil {
		return sub, eris.Wrap(err, "session: save subscriptions")
	}
	if err := c.store.SaveNotifications(ctx, notes); err != nil {
		return sub, eris.Wrap(err, "session: save notifications")
	}
	return sub, nil
}

// Subscriptions returns the subscriptions in registration order.
func (c *Controller) Subscriptions() []model.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nonNil(slices.Clone(c.subscriptions))
}

// IsSubscribed reports whether any subscription names company.
func (c *Controller) IsSubscribed(company string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.IsSubscribed(c.subscriptions, company)
}

// Notifications returns the notifications, newest first.
func (c *Controller) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nonNil(slices.Clone(c.notifications))
}

// DeleteNotification removes the notification with id. It reports whether
// one was removed.
func (c *Controller) DeleteNotification(ctx context.Context, id string) (bool, error) {
	c.persist.Lock()
	defer c.persist.Unlock()

	c.mu.Lock()
	i := slices.IndexFunc(c.notifications, func(n model.Notification) bool { return n.ID == id })
	if i < 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.notifications = slices.Delete(slices.Clone(c.notifications), i, i+1)
	notes := slices.Clone(c.notifications)
	c.mu.Unlock()

	return true, eris.Wrap(c.store.SaveNotifications(ctx, notes), "session: save notifications")
}

// ClearNotifications removes every notification.
func (c *Controller) ClearNotifications(ctx context.Context) error {
	c.persist.Lock()
	defer c.persist.Unlock()

	c.mu.Lock()
	c.notifications = []model.Notification{}
	c.mu.Unlock()

	return eris.Wrap(c.store.SaveNotifications(ctx, []model.Notification{}), "session: save notifications")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
