package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var (
	ErrMailQueueFull   = errors.New("mail queue full")
	ErrMailQueueClosed = errors.New("mail queue closed")
)

// Invitation is the content of a team invitation mail
type Invitation struct {
	To          string
	InviteeName string
	TeamName    string
	Token       string
}

// InvitationMailer delivers invitation mails. Implementations must not block
// on the mail server.
type InvitationMailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// SendFunc delivers a single mail
type SendFunc func(inv Invitation) error

// MailQueue hands invitation mails to a fixed pool of workers so a slow SMTP
// server never holds up a request
type MailQueue struct {
	jobs    chan Invitation
	send    SendFunc
	running atomic.Int32
	workers int

	// mu guards closed; senders hold it shared so Close never races a send
	mu     sync.RWMutex
	closed bool
}

// NewMailQueue initializes a queue that holds at most size pending mails
func NewMailQueue(send SendFunc, workers, size int) *MailQueue {
	if workers <= 0 {
		workers = 1
	}

	if size <= 0 {
		size = 64
	}

	zap.L().Debug("Initializing mail queue", zap.Int("workers", workers), zap.Int("max_pending", size))

	return &MailQueue{
		jobs:    make(chan Invitation, size),
		send:    send,
		workers: workers,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		go q.worker()
	}
}

// Close stops accepting mails; workers drain what is queued and exit.
// Calling it again does nothing.
func (q *MailQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.jobs)
}

func (q *MailQueue) worker() {
	for inv := range q.jobs {
		if err := q.send(inv); err != nil {
			zap.L().Error("Failed to send team invitation mail", zap.String("to", inv.To), zap.Error(err))
		} else {
			zap.L().Debug("Team invitation mail sent", zap.String("to", inv.To))
		}

		q.running.Add(-1)
	}
}

func (q *MailQueue) SendInvitation(_ context.Context, inv Invitation) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrMailQueueClosed
	}

	// Counted before the hand off so a fast worker can't take it below zero
	q.running.Add(1)

	select {
	case q.jobs <- inv:
		return nil
	default:
		q.running.Add(-1)
		return ErrMailQueueFull
	}
}

// Pending is the number of mails not yet handled by a worker
func (q *MailQueue) Pending() int32 { return q.running.Load() }

type SMTPOptions struct {
	Host     string
	Port     int
	Sender   string
	Password string
	// JoinURL is formatted with the invitation token
	JoinURL string
}

// NewSMTPSender builds a SendFunc on top of gomail
func NewSMTPSender(o SMTPOptions) SendFunc {
	d := gomail.NewDialer(o.Host, o.Port, o.Sender, o.Password)

	return func(inv Invitation) error {
		if inv.To == o.Sender {
			return errors.New("invalid email address")
		}

		m := gomail.NewMessage()
		m.SetHeader("From", o.Sender)
		m.SetHeader("To", inv.To)
		m.SetHeader("Subject", fmt.Sprintf("You have been invited to join %s", inv.TeamName))
		m.SetBody("text/html", invitationBody(o.JoinURL, inv))

		return d.DialAndSend(m)
	}
}

func invitationBody(joinURL string, inv Invitation) string {
	name := inv.InviteeName
	if name == "" {
		name = inv.To
	}

	link := fmt.Sprintf(joinURL, inv.Token)
	return fmt.Sprintf("Hello %s,<br><br>You have been invited to join the team %s. Click <a href='%s'>here</a> to accept the invitation.", name, inv.TeamName, link)
}
