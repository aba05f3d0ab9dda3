package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReceiver hands out each batch once, then blocks until ctx is done
type fakeReceiver struct {
	mu       sync.Mutex
	batches  [][]Message
	errs     []error
	deleted  []string
	// drained is closed once Receive has returned because ctx was done
	drained  chan struct{}
	drainEnd sync.Once
}

func (f *fakeReceiver) Receive(ctx context.Context) ([]Message, error) {
	f.mu.Lock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		f.mu.Unlock()
		return nil, err
	}
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	if f.drained != nil {
		f.drainEnd.Do(func() { close(f.drained) })
	}
	return nil, ctx.Err()
}

func (f *fakeReceiver) Delete(ctx context.Context, receiptHandle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, receiptHandle)
	return nil
}

func (f *fakeReceiver) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumer_AcksOnlyWhatHandlerAcks(t *testing.T) {
	recv := &fakeReceiver{
		batches: [][]Message{{
			{ID: "1", ReceiptHandle: "rh-1", Body: []byte("ok")},
			{ID: "2", ReceiptHandle: "rh-2", Body: []byte("fail")},
			{ID: "3", ReceiptHandle: "rh-3", Body: []byte("ok")},
		}},
	}

	var wg sync.WaitGroup
	wg.Add(3)
	handler := func(ctx context.Context, msg Message, ack AckFunc) {
		defer wg.Done()
		if string(msg.Body) == "ok" {
			assert.NoError(t, ack(ctx))
		}
	}

	c := NewConsumer(recv, handler, 2, discardLogger())
	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	wg.Wait()
	c.Stop()
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.ElementsMatch(t, []string{"rh-1", "rh-3"}, recv.Deleted())
}

func TestConsumer_SurvivesReceiveErrorAndPanics(t *testing.T) {
	recv := &fakeReceiver{
		errs: []error{errors.New("throttled")},
		batches: [][]Message{{
			{ID: "boom", ReceiptHandle: "rh-boom"},
			{ID: "2", ReceiptHandle: "rh-2"},
		}},
	}

	handled := make(chan string, 2)
	handler := func(ctx context.Context, msg Message, ack AckFunc) {
		handled <- msg.ID
		if msg.ID == "boom" {
			panic("bad message")
		}
		_ = ack(ctx)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewConsumer(recv, handler, 1, discardLogger())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	var ids []string
	for i := 0; i < 2; i++ {
		select {
		case id := <-handled:
			ids = append(ids, id)
		case <-time.After(5 * time.Second):
			t.Fatal("message not handled")
		}
	}
	cancel()
	<-done

	assert.Equal(t, []string{"boom", "2"}, ids)
	require.Eventually(t, func() bool {
		return len(recv.Deleted()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"rh-2"}, recv.Deleted())
}

func TestConsumer_StopLetsDispatchedHandlerAck(t *testing.T) {
	receiver := &fakeReceiver{
		batches: [][]Message{{{ID: "1", ReceiptHandle: "r1"}}},
		drained: make(chan struct{}),
	}
	started := make(chan struct{})
	release := make(chan struct{})
	var ackErr error

	handler := func(ctx context.Context, msg Message, ack AckFunc) {
		close(started)
		<-release
		ackErr = ack(ctx)
	}

	c := NewConsumer(receiver, handler, 1, discardLogger())
	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	<-started
	c.Stop()
	// polling has seen the cancellation before the handler acks
	select {
	case <-receiver.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not stop")
	}
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	require.NoError(t, ackErr)
	assert.Equal(t, []string{"r1"}, receiver.Deleted())
}
