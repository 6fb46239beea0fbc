package envelope

import (
	"testing"

	"github.com/streadway/amqp"
)

func TestFromDelivery_Defaults(t *testing.T) {
	env := FromDelivery(amqp.Delivery{Body: []byte(`[]`)})

	if env.MessageID == "" {
		t.Fatal("expected a generated message id")
	}
	if env.RetryCount != 0 {
		t.Fatalf("expected retry count 0, got %d", env.RetryCount)
	}
	if env.OriginalRetryCount != 0 {
		t.Fatalf("expected original retry count 0, got %d", env.OriginalRetryCount)
	}
	if env.ContentType != ContentTypeJSON {
		t.Fatalf("expected JSON content type default, got %q", env.ContentType)
	}
}

func TestWithRetry_MissingContentTypeRepublishedAsJSON(t *testing.T) {
	env := FromDelivery(amqp.Delivery{
		MessageId: "m1",
		Body:      []byte(`[{"ProdutoId":1,"Quantidade":3}]`),
	})

	pub := env.WithRetry(1)

	if pub.ContentType != ContentTypeJSON {
		t.Fatalf("requeued content type: got %q, want %q", pub.ContentType, ContentTypeJSON)
	}
}

func TestFromDelivery_RetryHeaderVariants(t *testing.T) {
	tests := map[string]struct {
		value any
		want  int
	}{
		"string-encoded bytes": {value: []byte("2"), want: 2},
		"string":               {value: "5", want: 5},
		"int":                  {value: 3, want: 3},
		"int32":                {value: int32(4), want: 4},
		"int64":                {value: int64(7), want: 7},
		"malformed bytes":      {value: []byte("many"), want: 0},
		"unsupported type":     {value: 1.5, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := FromDelivery(amqp.Delivery{
				MessageId: "m1",
				Headers:   amqp.Table{HeaderRetries: tt.value},
			})

			if env.RetryCount != tt.want {
				t.Fatalf("retry count: got %d, want %d", env.RetryCount, tt.want)
			}
		})
	}
}

func TestFromDelivery_CorrelationFallback(t *testing.T) {
	t.Run("property wins", func(t *testing.T) {
		env := FromDelivery(amqp.Delivery{
			MessageId:     "m1",
			CorrelationId: "prop",
			Headers:       amqp.Table{HeaderCorrelationID: []byte("header")},
		})
		if env.CorrelationID != "prop" {
			t.Fatalf("got %q, want prop", env.CorrelationID)
		}
	})

	t.Run("header fallback", func(t *testing.T) {
		env := FromDelivery(amqp.Delivery{
			MessageId: "m1",
			Headers:   amqp.Table{HeaderCorrelationID: []byte("header")},
		})
		if env.CorrelationID != "header" {
			t.Fatalf("got %q, want header", env.CorrelationID)
		}
	})
}

func TestWithRetry(t *testing.T) {
	env := FromDelivery(amqp.Delivery{
		MessageId:   "m1",
		ContentType: ContentTypeJSON,
		Body:        []byte(`[{"ProdutoId":1,"Quantidade":3}]`),
	})

	pub := env.WithRetry(1)

	if got := string(pub.Headers[HeaderRetries].([]byte)); got != "1" {
		t.Fatalf("x-retries: got %q, want 1", got)
	}
	if pub.MessageId != "m1" {
		t.Fatalf("message id not preserved: %q", pub.MessageId)
	}
	if pub.DeliveryMode != amqp.Persistent {
		t.Fatal("requeued message must be persistent")
	}
	if string(pub.Body) != `[{"ProdutoId":1,"Quantidade":3}]` {
		t.Fatalf("body not preserved: %s", pub.Body)
	}
}

func TestToDeadLetter_KeepsRetryHistory(t *testing.T) {
	env := FromDelivery(amqp.Delivery{
		MessageId: "m1",
		Headers:   amqp.Table{HeaderRetries: []byte("3")},
	})

	pub := env.ToDeadLetter(4)

	if got := string(pub.Headers[HeaderOriginalRetries].([]byte)); got != "4" {
		t.Fatalf("x-original-retries: got %q, want 4", got)
	}
	if got := string(pub.Headers[HeaderRetries].([]byte)); got != "3" {
		t.Fatalf("x-retries should be kept for forensics, got %q", got)
	}
	if pub.MessageId != "m1" {
		t.Fatalf("message id not preserved: %q", pub.MessageId)
	}
}

func TestPublishing_DoesNotMutateSourceHeaders(t *testing.T) {
	headers := amqp.Table{HeaderRetries: []byte("1")}
	env := FromDelivery(amqp.Delivery{MessageId: "m1", Headers: headers})

	_ = env.WithRetry(2)

	if got := string(headers[HeaderRetries].([]byte)); got != "1" {
		t.Fatalf("source headers mutated: x-retries = %q", got)
	}
}
