package envelope

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Header keys carried as AMQP message metadata. The retry counters are
// string-encoded integers for compatibility with the existing wire
// contract; all encoding and decoding happens in this package.
const (
	HeaderCorrelationID   = "X-Correlation-ID"
	HeaderRetries         = "x-retries"
	HeaderOriginalRetries = "x-original-retries"

	ContentTypeJSON = "application/json"
)

// Envelope is the typed view of a message: payload plus identity and
// retry metadata. It is built from a delivery on the consumer side and
// converted back to an amqp.Publishing when a message is requeued or
// dead-lettered.
type Envelope struct {
	MessageID          string
	CorrelationID      string
	ContentType        string
	RetryCount         int
	OriginalRetryCount int
	Body               []byte

	headers amqp.Table
}

// New creates an envelope for a fresh publish with a generated message id.
func New(body []byte, correlationID string) Envelope {
	return Envelope{
		MessageID:     uuid.NewString(),
		CorrelationID: correlationID,
		ContentType:   ContentTypeJSON,
		Body:          body,
	}
}

// FromDelivery builds an envelope from a received delivery. A delivery
// without a message id gets a generated one so the idempotency ledger
// always has a key to work with. The correlation id is taken from the
// message property, falling back to the X-Correlation-ID header.
func FromDelivery(d amqp.Delivery) Envelope {
	messageID := d.MessageId
	if messageID == "" {
		messageID = uuid.NewString()
	}

	correlationID := d.CorrelationId
	if correlationID == "" {
		correlationID = stringHeader(d.Headers, HeaderCorrelationID)
	}

	contentType := d.ContentType
	if contentType == "" {
		contentType = ContentTypeJSON
	}

	return Envelope{
		MessageID:          messageID,
		CorrelationID:      correlationID,
		ContentType:        contentType,
		RetryCount:         intHeader(d.Headers, HeaderRetries),
		OriginalRetryCount: intHeader(d.Headers, HeaderOriginalRetries),
		Body:               d.Body,
		headers:            d.Headers,
	}
}

// Publishing converts the envelope to a persistent publishing for the
// first enqueue of a message.
func (e Envelope) Publishing() amqp.Publishing {
	headers := cloneTable(e.headers)
	if e.CorrelationID != "" {
		headers[HeaderCorrelationID] = e.CorrelationID
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  e.ContentType,
		MessageId:    e.MessageID,
		Headers:      headers,
		Body:         e.Body,
	}
}

// WithRetry converts the envelope to a publishing carrying the given
// retry count, preserving the original message id so the idempotency
// key survives the redelivery lineage.
func (e Envelope) WithRetry(retryCount int) amqp.Publishing {
	pub := e.Publishing()
	pub.Headers[HeaderRetries] = encodeInt(retryCount)

	return pub
}

// ToDeadLetter converts the envelope to a dead-letter publishing. The
// retry count at the moment of dead-lettering is recorded in the
// x-original-retries header; existing headers are kept for forensics.
func (e Envelope) ToDeadLetter(originalRetries int) amqp.Publishing {
	pub := e.Publishing()
	pub.Headers[HeaderOriginalRetries] = encodeInt(originalRetries)

	return pub
}

// encodeInt writes an integer header in its wire form.
func encodeInt(v int) []byte {
	return []byte(strconv.Itoa(v))
}

// intHeader reads an integer header. Brokers and clients disagree on
// whether header values arrive as raw bytes, strings, or native
// integers, so all of those are accepted. Absent or malformed means 0.
func intHeader(headers amqp.Table, key string) int {
	raw, ok := headers[key]
	if !ok {
		return 0
	}

	switch v := raw.(type) {
	case []byte:
		parsed, err := strconv.Atoi(string(v))
		if err != nil {
			return 0
		}

		return parsed
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}

		return parsed
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// stringHeader reads a string header stored as bytes or string.
func stringHeader(headers amqp.Table, key string) string {
	switch v := headers[key].(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

func cloneTable(t amqp.Table) amqp.Table {
	clone := make(amqp.Table, len(t))
	for k, v := range t {
		clone[k] = v
	}

	return clone
}
