package reservation

import (
	"encoding/json"
	"fmt"
)

// Command asks the stock consumer to subtract a quantity from one product.
// A message body is a JSON array of these, one batch per order.
//
// The JSON field names are the legacy wire contract shared with the
// upstream sales system and must not be renamed.
type Command struct {
	ProductID int64 `json:"ProdutoId"`
	Quantity  int   `json:"Quantidade"`
}

// EncodeBatch serializes a command batch to its canonical wire form.
func EncodeBatch(commands []Command) ([]byte, error) {
	body, err := json.Marshal(commands)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reservation batch: %w", err)
	}

	return body, nil
}

// DecodeBatch parses a message body into a command batch.
func DecodeBatch(body []byte) ([]Command, error) {
	var commands []Command
	if err := json.Unmarshal(body, &commands); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reservation batch: %w", err)
	}

	return commands, nil
}
