package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	minReceiveBackoff = time.Second
	maxReceiveBackoff = 30 * time.Second
)

// Consumer polls a Receiver and hands every message to a Handler on a
// fixed pool of workers
type Consumer struct {
	receiver Receiver
	handler  Handler
	workers  int
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewConsumer(receiver Receiver, handler Handler, workers int, logger *slog.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		receiver: receiver,
		handler:  handler,
		workers:  workers,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Run blocks until ctx is done or Stop is called. Messages already handed
// to workers are finished before it returns.
func (c *Consumer) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	// stopping only ends polling; a dispatched message still gets to ack
	handlerCtx := context.WithoutCancel(ctx)

	jobs := make(chan Message)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				c.handle(handlerCtx, msg)
			}
		}()
	}

	c.logger.Info("queue consumer started", "workers", c.workers)
	c.poll(ctx, jobs)
	close(jobs)
	wg.Wait()
	c.logger.Info("queue consumer stopped")
}

// Stop asks Run to return; safe to call more than once
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Consumer) poll(ctx context.Context, jobs chan<- Message) {
	backoff := minReceiveBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := c.receiver.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to receive messages", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxReceiveBackoff)
			continue
		}
		backoff = minReceiveBackoff

		for _, msg := range messages {
			select {
			case jobs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg Message) {
	ack := func(ctx context.Context) error {
		return c.receiver.Delete(ctx, msg.ReceiptHandle)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling message", "message_id", msg.ID, "panic", r)
		}
	}()

	c.handler(ctx, msg, ack)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
