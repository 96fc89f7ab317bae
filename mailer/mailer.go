// Package mailer delivers transactional email. Delivery is fire-and-forget:
// a failed send is logged and never reaches the request that triggered it.
package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainText string
	HTML      string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Log writes messages to the logger instead of sending them. Used when no
// SendGrid key is configured.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Send(_ context.Context, msg Message) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent, no provider configured",
		"to", msg.ToEmail,
		"subject", msg.Subject,
		"body", msg.PlainText,
	)
	return nil
}

// Async hands each message to a goroutine with its own timeout, detached from
// the caller's context, and always returns nil.
type Async struct {
	next    Mailer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Mailer, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

func (a *Async) Send(_ context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.Send(ctx, msg); err != nil {
			slog.Error("Email service failed", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every message handed to Send has been attempted.
func (a *Async) Wait() {
	a.wg.Wait()
}
