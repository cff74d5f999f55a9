package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gedquiz/internal/quiz"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "quiz.events"
	queueSize       = 256
	publishTimeout  = 5 * time.Second
)

// Message is the JSON body published for every engine event.
type Message struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id,omitempty"`
	QuestionID int64     `json:"question_id,omitempty"`
	Count      int       `json:"count,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

func NewMessage(ev quiz.Event) Message {
	m := Message{
		Type:       string(ev.Kind),
		SessionID:  ev.SessionID,
		UserID:     ev.UserID,
		QuestionID: ev.QuestionID,
		Count:      ev.Count,
		At:         ev.At,
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}

// RoutingKey is "quiz." followed by the event kind.
func RoutingKey(kind quiz.EventKind) string {
	return "quiz." + string(kind)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher forwards engine events to a topic exchange. Hook never blocks:
// events are queued for a single worker and dropped when the queue is full.
type Publisher struct {
	conn     *amqp091.Connection
	ch       channel
	exchange string
	enabled  bool

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	done   chan struct{}
	once   sync.Once
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange. An
// empty uri returns a disabled publisher.
func NewPublisher(uri, exchange string) (*Publisher, error) {
	if uri == "" {
		log.Println("rabbitmq url is empty, event publishing is disabled")
		return &Publisher{}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		enabled:  true,
		queue:    make(chan Message, queueSize),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Hook is a quiz.Hook that enqueues the event for publishing. Events that
// arrive after Close are dropped.
func (p *Publisher) Hook(ev quiz.Event) {
	if !p.enabled {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- NewMessage(ev):
	default:
		log.Printf("event publisher queue full, dropping %s for session %s", ev.Kind, ev.SessionID)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for m := range p.queue {
		if err := p.publish(context.Background(), m); err != nil {
			log.Printf("publish %s: %v", m.Type, err)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		RoutingKey(quiz.EventKind(m.Type)),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    m.At,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close drains queued events and closes the channel and connection.
func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
		<-p.done
		if cerr := p.ch.Close(); cerr != nil {
			log.Printf("close rabbitmq channel: %v", cerr)
		}
		if p.conn != nil {
			if cerr := p.conn.Close(); cerr != nil {
				err = fmt.Errorf("close rabbitmq connection: %w", cerr)
			}
		}
	})
	return err
}
