package kafkaSender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/Dmitrij-bot/vinabook/internal/repository"
)

type Config struct {
	Brokers []string      `json:"brokers" yaml:"brokers" env:"VINABOOK_KAFKA_BROKERS"`
	Topic   string        `json:"topic" yaml:"topic" env:"VINABOOK_KAFKA_TOPIC"`
	Period  time.Duration `json:"period" yaml:"period" env:"VINABOOK_KAFKA_PERIOD"`
}

func (c Config) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// NewSyncProducer dials the configured brokers.
func NewSyncProducer(cfg Config) (sarama.SyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// Sender relays outbox events to Kafka, one per tick.
type Sender struct {
	outbox   repository.Outbox
	producer sarama.SyncProducer
	topic    string
	period   time.Duration
	log      *logrus.Entry

	stopCh chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSender(cfg Config, outbox repository.Outbox, producer sarama.SyncProducer, log *logrus.Entry) *Sender {
	period := cfg.Period
	if period <= 0 {
		period = 5 * time.Second
	}

	return &Sender{
		outbox:   outbox,
		producer: producer,
		topic:    cfg.Topic,
		period:   period,
		log:      log.WithField("component", "kafka-sender"),
		stopCh:   make(chan struct{}),
	}
}

func (s *Sender) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				s.log.Info("stopping event processing")
				return
			case <-ticker.C:
			}

			if _, err := s.Flush(runCtx); err != nil && runCtx.Err() == nil {
				s.log.WithError(err).Warn("failed to relay events")
			}
		}
	}()

	return nil
}

// Stop cancels an in-flight flush and waits for the relay loop until ctx is
// done. The producer is closed either way.
func (s *Sender) Stop(ctx context.Context) error {
	close(s.stopCh)
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("kafka sender did not stop: %w", ctx.Err())
	}

	if err := s.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return waitErr
}

// Flush sends pending events until the outbox is empty and returns how many
// were delivered. An event is marked done only after Kafka acknowledged it.
func (s *Sender) Flush(ctx context.Context) (int, error) {
	sent := 0
	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		event, err := s.outbox.GetKafkaMessage(ctx)
		if err != nil {
			return sent, fmt.Errorf("failed to get new event: %w", err)
		}
		if event.ID == 0 {
			return sent, nil
		}

		if err := s.send(event); err != nil {
			return sent, err
		}

		if err := s.outbox.SetDone(ctx, event.ID); err != nil {
			return sent, fmt.Errorf("failed to set event %d done: %w", event.ID, err)
		}
		sent++
	}
}

func (s *Sender) send(event repository.Event) error {
	if s.producer == nil {
		return errors.New("kafka producer is not configured")
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.StringEncoder(event.Message),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %d to kafka: %w", event.ID, err)
	}

	s.log.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"partition": partition,
		"offset":    offset,
	}).Info("event sent to kafka")

	return nil
}
