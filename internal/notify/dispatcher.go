package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	"go.uber.org/zap"

	"travel-price-watch/internal/alert"
	"travel-price-watch/internal/domain"
	"travel-price-watch/internal/logging"
	"travel-price-watch/internal/observability"
)

// Options configures a Dispatcher.
type Options struct {
	Service NotificationService
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Dispatcher sends one push and one email per qualifying alert.
type Dispatcher struct {
	service NotificationService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Service == nil {
		return nil, errors.New("notify: notification service is required")
	}
	d := &Dispatcher{
		service: opts.Service,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	d.logger = logging.OrNop(d.logger)
	return d, nil
}

// Message is the rendered content of one alert.
type Message struct {
	Title    string
	Body     string
	Subject  string
	HTMLBody string
}

// Render builds push and email content for an alerting item.
func Render(item *domain.TrackedItem, displayName string, resolvedPrice float64) Message {
	price := alert.FormatPrice(resolvedPrice)
	target := alert.FormatPrice(item.TargetPrice)

	return Message{
		Title:   "Price Alert: " + displayName,
		Body:    fmt.Sprintf("%s dropped to %s (your target: %s).", displayName, price, target),
		Subject: fmt.Sprintf("Price drop: %s is now %s", displayName, price),
		HTMLBody: fmt.Sprintf(
			"<h2>Good news!</h2><p><strong>%s</strong> dropped to <strong>%s</strong>.</p><p>Your target price was %s.</p><p>%s</p>",
			html.EscapeString(displayName),
			html.EscapeString(price),
			html.EscapeString(target),
			html.EscapeString(item.ItemName),
		),
	}
}

// MaybeNotify sends the alert when the item is alerting and the user has an
// email address. It returns true when at least one channel delivered.
// Channel failures are returned as *DispatchError, joined when both fail.
func (d *Dispatcher) MaybeNotify(ctx context.Context, user *domain.User, item *domain.TrackedItem, displayName string, resolvedPrice float64) (bool, error) {
	if !item.AlertStatus.ShouldAlert || user.EmailAddress() == "" {
		return false, nil
	}

	msg := Render(item, displayName, resolvedPrice)

	var errs []error
	delivered := 0

	pushErr := d.service.SendPush(ctx, user.ID, msg.Title, msg.Body)
	d.metrics.RecordDelivery(ChannelPush, pushErr)
	if pushErr != nil {
		errs = append(errs, &DispatchError{Channel: ChannelPush, Err: pushErr})
	} else {
		delivered++
	}

	emailErr := d.service.SendEmail(ctx, user.EmailAddress(), msg.Subject, msg.HTMLBody)
	d.metrics.RecordDelivery(ChannelEmail, emailErr)
	if emailErr != nil {
		errs = append(errs, &DispatchError{Channel: ChannelEmail, Err: emailErr})
	} else {
		delivered++
	}

	err := errors.Join(errs...)
	if err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("op", "notify.MaybeNotify"),
			zap.String("user_id", user.ID),
			zap.String("item_id", item.ID),
			zap.Int("delivered", delivered),
			zap.Error(err),
		)
	} else {
		d.logger.Debug("notification sent",
			zap.String("op", "notify.MaybeNotify"),
			zap.String("user_id", user.ID),
			zap.String("item_id", item.ID),
		)
	}

	return delivered > 0, err
}
