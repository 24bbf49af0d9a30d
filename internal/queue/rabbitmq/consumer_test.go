package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDeliverAcksHandledJob(t *testing.T) {
	var got string
	a := &fakeAck{}
	deliver(context.Background(), quiet(), []byte(`{"jobId":"j1"}`), a, func(ctx context.Context, id string) error {
		got = id
		return nil
	})
	if got != "j1" || !a.acked || a.nacked {
		t.Fatalf("expected ack for j1, got id=%q ack=%+v", got, a)
	}
}

func TestDeliverRequeuesOnHandlerError(t *testing.T) {
	a := &fakeAck{}
	deliver(context.Background(), quiet(), []byte(`{"jobId":"j1"}`), a, func(ctx context.Context, id string) error {
		return errors.New("mongo down")
	})
	if !a.nacked || !a.requeued {
		t.Fatalf("expected requeue, got %+v", a)
	}
}

func TestDeliverDropsMalformedMessage(t *testing.T) {
	for _, body := range []string{"not json", `{}`} {
		a := &fakeAck{}
		called := false
		deliver(context.Background(), quiet(), []byte(body), a, func(ctx context.Context, id string) error {
			called = true
			return nil
		})
		if called || !a.nacked || a.requeued {
			t.Fatalf("expected drop for %q, got called=%v ack=%+v", body, called, a)
		}
	}
}

type recordingChannel struct {
	exchange, queue, bindKey string
}

func (r *recordingChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	r.exchange = name
	return nil
}

func (r *recordingChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	r.queue = name
	return amqp.Queue{Name: name}, nil
}

func (r *recordingChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	r.bindKey = key
	return nil
}

func TestDeclareUsesQueueAsRoutingKey(t *testing.T) {
	ch := &recordingChannel{}
	if err := declare(ch, queueOrDefault("")); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if ch.exchange != exchangeName || ch.queue != DefaultQueue || ch.bindKey != DefaultQueue {
		t.Fatalf("unexpected topology: %+v", ch)
	}
}
