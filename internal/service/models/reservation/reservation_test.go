package reservation

import (
	"strings"
	"testing"
)

func TestDecodeBatch_LegacyFieldNames(t *testing.T) {
	body := []byte(`[{"ProdutoId":1,"Quantidade":3},{"ProdutoId":999,"Quantidade":5}]`)

	commands, err := DecodeBatch(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(commands))
	}
	if commands[0].ProductID != 1 || commands[0].Quantity != 3 {
		t.Fatalf("unexpected first command: %+v", commands[0])
	}
	if commands[1].ProductID != 999 || commands[1].Quantity != 5 {
		t.Fatalf("unexpected second command: %+v", commands[1])
	}
}

func TestEncodeBatch_WireContract(t *testing.T) {
	body, err := EncodeBatch([]Command{{ProductID: 7, Quantity: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(body), `"ProdutoId":7`) {
		t.Fatalf("wire contract broken: %s", body)
	}
}

func TestDecodeBatch_Malformed(t *testing.T) {
	if _, err := DecodeBatch([]byte(`{"not":"an array"}`)); err == nil {
		t.Fatal("expected an error for a malformed body")
	}
}
