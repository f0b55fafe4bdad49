package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"findash/internal/core"
)

var errEmptyBatch = errors.New("empty batch")

// ImportBatchMessage carries one chunk of transactions to the import worker.
type ImportBatchMessage struct {
	BatchID      string             `json:"batch_id"`
	Transactions []core.Transaction `json:"transactions"`
	Timestamp    time.Time          `json:"timestamp"`
}

func NewImportBatchMessage(txs []core.Transaction) *ImportBatchMessage {
	return &ImportBatchMessage{
		BatchID:      uuid.NewString(),
		Transactions: txs,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *ImportBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportBatchMessageFromJSON decodes a message and rejects ones without a
// batch id or without transactions.
func ImportBatchMessageFromJSON(data []byte) (*ImportBatchMessage, error) {
	var msg ImportBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BatchID == "" {
		return nil, fmt.Errorf("missing batch_id")
	}
	if len(msg.Transactions) == 0 {
		return nil, fmt.Errorf("batch %s: %w", msg.BatchID, errEmptyBatch)
	}
	return &msg, nil
}
