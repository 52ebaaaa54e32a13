package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gartstein/vestledger/internal/vesting/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	ProgramInitialized  EventType = "program_initialized"
	OrganizationCreated EventType = "organization_created"
	EmployeeJoined      EventType = "employee_joined"
	EmployeeRemoved     EventType = "employee_removed"
	ScheduleCreated     EventType = "schedule_created"
	TokensClaimed       EventType = "tokens_claimed"
	ScheduleRevoked     EventType = "schedule_revoked"
)

const defaultBufferSize = 1000

// Event is a committed ledger change. Key partitions the topic so events for
// one organization stay ordered.
type Event struct {
	Type         EventType               `json:"type"`
	Key          string                  `json:"key"`
	OccurredAt   int64                   `json:"occurred_at"`
	Actor        string                  `json:"actor,omitempty"`
	Program      *models.ProgramState    `json:"program,omitempty"`
	Organization *models.Organization    `json:"organization,omitempty"`
	Employee     *models.Employee        `json:"employee,omitempty"`
	Schedule     *models.VestingSchedule `json:"schedule,omitempty"`
	Amount       uint64                  `json:"amount,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events asynchronously. Produce never blocks; when the
// buffer is full the event is dropped and logged.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	onDrop    func()
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return newProducer(writer, logger, defaultBufferSize), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// OnDrop registers a callback invoked for every dropped event.
func (p *Producer) OnDrop(fn func()) {
	p.onDrop = fn
}

func (p *Producer) Produce(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.closeChan:
		p.drop("Kafka producer closed, dropping event", event)
		return
	default:
	}

	select {
	case p.events <- event:
	default:
		p.drop("Kafka producer queue full, dropping event", event)
	}
}

func (p *Producer) drop(msg string, event Event) {
	p.logger.Warn(msg,
		zap.String("event_type", string(event.Type)),
		zap.String("key", event.Key),
	)
	if p.onDrop != nil {
		p.onDrop()
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			// flush what is already buffered
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("key", event.Key),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.Key),
		)
	}
}

// Close flushes buffered events and closes the writer.
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		close(p.closeChan)
		p.mu.Unlock()
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer", zap.Error(err))
		}
	})
}

// Discard drops every event. It stands in for the producer when no brokers
// are configured.
type Discard struct{}

func (Discard) Produce(Event) {}
