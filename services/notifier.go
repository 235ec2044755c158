package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// ScoreNotifier delivers a quiz result to the respondent. Delivery itself
// (email, webhook) lives outside this service; a notification failure never
// affects the stored submission.
type ScoreNotifier interface {
	SendScore(ctx context.Context, email, username string, score, maxScore int) error
}

// LogNotifier is the default notifier when no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) SendScore(ctx context.Context, email, username string, score, maxScore int) error {
	log.Printf("Quiz score for %s <%s>: %d/%d", username, email, score, maxScore)
	return nil
}

// NotificationDispatcher runs score notifications on a bounded worker queue
// so a slow mail upstream cannot stall submission handling.
type NotificationDispatcher struct {
	notifier ScoreNotifier
	queue    chan func(ctx context.Context)
	wg       sync.WaitGroup
	retries  int
	delay    time.Duration
}

func NewNotificationDispatcher(ctx context.Context, notifier ScoreNotifier, workers, queueSize int) *NotificationDispatcher {
	d := &NotificationDispatcher{
		notifier: notifier,
		queue:    make(chan func(context.Context), queueSize),
		retries:  3,
		delay:    2 * time.Second,
	}

	for i := 0; i < workers; i++ {
		go d.worker(ctx)
	}

	return d
}

// worker drains the queue until it is closed. Cancellation skips the work
// rather than abandoning the loop so every enqueued job is accounted for.
func (d *NotificationDispatcher) worker(ctx context.Context) {
	for job := range d.queue {
		if ctx.Err() == nil {
			job(ctx)
		}
		d.wg.Done()
	}
}

// DispatchScore enqueues a notification, fire-and-forget. A full queue drops
// the notification rather than blocking the caller.
func (d *NotificationDispatcher) DispatchScore(email, username string, score, maxScore int) {
	job := func(ctx context.Context) {
		for attempt := 1; attempt <= d.retries; attempt++ {
			if ctx.Err() != nil {
				return
			}
			err := d.notifier.SendScore(ctx, email, username, score, maxScore)
			if err == nil {
				return
			}
			log.Printf("Score notification failed (attempt %d/%d): %v", attempt, d.retries, err)
			time.Sleep(d.delay)
		}
		log.Printf("Score notification dropped for %s after %d attempts", email, d.retries)
	}

	d.wg.Add(1)
	select {
	case d.queue <- job:
	default:
		d.wg.Done()
		log.Printf("Notification queue full: dropping score notification for %s", email)
	}
}

// Shutdown stops accepting work and waits for in-flight notifications until
// the context expires.
func (d *NotificationDispatcher) Shutdown(ctx context.Context) {
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		log.Println("Notification dispatcher shutdown timed out")
	case <-done:
		log.Println("Notification dispatcher shutdown complete")
	}
}
