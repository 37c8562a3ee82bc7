package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventSender struct {
	writer *kafka.Writer
	topic  string
}

type RequestEvent struct {
	RequestID string    `json:"request_id"`
	StudentID string    `json:"student_id"`
	TutorID   string    `json:"tutor_id"`
	CourseID  string    `json:"course_id"`
	ClassType string    `json:"class_type"`
	StartsAt  time.Time `json:"starts_at"`
	EventType string    `json:"event_type"` // "requested", "accepted", "rejected"
	Message   string    `json:"message,omitempty"`
}

func NewEventSender(brokers []string, topic string) *EventSender {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &EventSender{
		writer: writer,
		topic:  topic,
	}
}

func (s *EventSender) Close() error {
	return s.writer.Close()
}

func (s *EventSender) SendRequestEvent(ctx context.Context, event RequestEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal request event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.RequestID),
		Value: data,
		Time:  time.Now(),
	}

	if err := s.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to send request event: %w", err)
	}

	return nil
}
