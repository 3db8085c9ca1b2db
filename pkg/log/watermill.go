package log

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
)

const correlationIDMetadataKey = "correlation_id"

// NewWatermill adapts a logrus entry to watermill's logger interface.
func NewWatermill(entry *logrus.Entry) watermill.LoggerAdapter {
	return watermillAdapter{entry: entry}
}

type watermillAdapter struct {
	entry *logrus.Entry
}

func (a watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.withFields(fields).WithError(err).Error(msg)
}

func (a watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.withFields(fields).Info(msg)
}

func (a watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.withFields(fields).Debug(msg)
}

func (a watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.withFields(fields).Trace(msg)
}

func (a watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillAdapter{entry: a.withFields(fields)}
}

func (a watermillAdapter) withFields(fields watermill.LogFields) *logrus.Entry {
	return a.entry.WithFields(logrus.Fields(fields))
}

// CorrelationPublisherDecorator stamps outgoing messages with the correlation
// id from their context, so consumers log under the same id.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (d CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for i := range messages {
		if messages[i].Metadata.Get(correlationIDMetadataKey) != "" {
			continue
		}
		messages[i].Metadata.Set(correlationIDMetadataKey, CorrelationIDFromContext(messages[i].Context()))
	}
	return d.Publisher.Publish(topic, messages...)
}

// ContextWithCorrelationIDFromMessage restores the correlation id of a
// consumed message into its handler context.
func ContextWithCorrelationIDFromMessage(msg *message.Message) {
	id := msg.Metadata.Get(correlationIDMetadataKey)
	if id == "" {
		id = NewCorrelationID()
	}
	msg.SetContext(ContextWithCorrelationID(msg.Context(), id))
}
