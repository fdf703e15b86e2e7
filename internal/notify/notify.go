// Package notify delivers price alerts over push and email.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Channel names.
const (
	ChannelPush  = "push"
	ChannelEmail = "email"
)

// PushSender delivers a push notification addressed by user id.
type PushSender interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

// EmailSender delivers an HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, htmlBody string) error
}

// NotificationService delivers both push and email.
type NotificationService interface {
	PushSender
	EmailSender
}

// Channels composes independent push and email senders into a
// NotificationService.
type Channels struct {
	Push  PushSender
	Email EmailSender
}

// Compile-time interface check.
var _ NotificationService = Channels{}

// ErrNoChannel is returned when a channel has no sender configured.
var ErrNoChannel = errors.New("notification channel not configured")

// SendPush forwards to the push sender.
func (c Channels) SendPush(ctx context.Context, userID, title, body string) error {
	if c.Push == nil {
		return ErrNoChannel
	}
	return c.Push.SendPush(ctx, userID, title, body)
}

// SendEmail forwards to the email sender.
func (c Channels) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	if c.Email == nil {
		return ErrNoChannel
	}
	return c.Email.SendEmail(ctx, address, subject, htmlBody)
}

// DispatchError reports a failed delivery on one channel.
type DispatchError struct {
	Channel string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
