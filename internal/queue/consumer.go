package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/stadium-booking/internal/logging"
)

// Handler processes one decoded event.
type Handler interface {
	Handle(ctx context.Context, ev BookingEvent) error
}

// Notifier pushes a short text to the stadium owner channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ConsumerConfig names the queue bound to the exchange.
type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// RunConsumer consumes until ctx is done, redialling with exponential
// backoff whenever the connection drops.
func RunConsumer(ctx context.Context, cfg ConsumerConfig, h Handler) {
	log := logging.Default().With("component", "booking-consumer")
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Warn("dial broker failed", "err", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, h)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range BindingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(ctx, d.Body, h); err != nil {
			logging.Default().Error("handle message failed", "component", "booking-consumer", "err", err)
			_ = d.Nack(false, false) // no requeue, avoids a poison-message loop
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(ctx context.Context, body []byte, h Handler) error {
	ev, err := DecodeEvent(body)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return h.Handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// EventLog appends one line per event to a file and optionally forwards
// owner-facing events to a Notifier. Redelivered events are skipped by id.
type EventLog struct {
	Path     string
	Notifier Notifier

	mu   sync.Mutex
	seen map[string]struct{}
	ring []string
}

const seenCapacity = 4096

func (l *EventLog) Handle(ctx context.Context, ev BookingEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen == nil {
		l.seen = make(map[string]struct{}, seenCapacity)
	}
	if _, dup := l.seen[ev.EventID]; dup {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	l.remember(ev.EventID)

	if l.Notifier != nil {
		if text, ok := ownerMessage(ev); ok {
			if err := l.Notifier.Notify(ctx, text); err != nil {
				logging.Default().Warn("owner notification failed", "event_id", ev.EventID, "err", err)
			}
		}
	}
	return nil
}

func (l *EventLog) remember(id string) {
	if len(l.ring) >= seenCapacity {
		delete(l.seen, l.ring[0])
		l.ring = l.ring[1:]
	}
	l.seen[id] = struct{}{}
	l.ring = append(l.ring, id)
}

// FormatLine renders the single-line log record for ev.
func FormatLine(ev BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | event_id=%s | stadium_id=%d | slot=%s %s | slot_id=%d | slot_status=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Kind, ev.EventID, ev.StadiumID, ev.Date, ev.StartTime, ev.SlotID, ev.SlotStatus)
	if ev.BookingID != 0 {
		fmt.Fprintf(&b, " | booking_id=%d", ev.BookingID)
	}
	if ev.PlayerID != 0 {
		fmt.Fprintf(&b, " | player_id=%d", ev.PlayerID)
	}
	if len(ev.RejectedBookingIDs) > 0 {
		ids := make([]string, len(ev.RejectedBookingIDs))
		for i, id := range ev.RejectedBookingIDs {
			ids[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(&b, " | auto_rejected=[%s]", strings.Join(ids, ","))
	}
	b.WriteByte('\n')
	return b.String()
}

func ownerMessage(ev BookingEvent) (string, bool) {
	name := ev.StadiumName
	if name == "" {
		name = fmt.Sprintf("stadium #%d", ev.StadiumID)
	}
	switch ev.Kind {
	case KeyBookingRequested:
		return fmt.Sprintf("New booking request #%d for %s on %s at %s", ev.BookingID, name, ev.Date, ev.StartTime), true
	case KeyBookingAccepted:
		return fmt.Sprintf("Booking #%d accepted for %s on %s at %s", ev.BookingID, name, ev.Date, ev.StartTime), true
	case KeyBookingCancelled:
		return fmt.Sprintf("Booking #%d cancelled, %s on %s at %s is open again", ev.BookingID, name, ev.Date, ev.StartTime), true
	}
	return "", false
}
