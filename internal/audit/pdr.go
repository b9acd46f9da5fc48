// Package audit provides PDR (Process Decision Record) writing for faultdrill.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sink persists decision records. store.SQLiteStore is one.
type Sink interface {
	WritePDR(ctx context.Context, entry *models.PDREntry) error
}

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	sink Sink
	now  func() time.Time
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Sink) *PDRWriter {
	return &PDRWriter{sink: s, now: time.Now}
}

// Record writes a PDR entry for a state-mutating action. A nil writer
// records nothing.
func (w *PDRWriter) Record(ctx context.Context, action string, inputs interface{}, outcome, workOrderID, details string) (*models.PDREntry, error) {
	if w == nil || w.sink == nil {
		return nil, nil
	}
	entry := &models.PDREntry{
		ID:          uuid.New().String(),
		Action:      action,
		InputsHash:  hashInputs(inputs),
		Outcome:     outcome,
		WorkOrderID: workOrderID,
		Details:     details,
		Timestamp:   w.now().UTC(),
	}
	if err := w.sink.WritePDR(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LogSink emits decision records as structured log events. It backs the
// audit trail when the store has no table for it.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger.With().Str("component", "audit").Logger()}
}

// WritePDR logs the entry at info level.
func (s *LogSink) WritePDR(_ context.Context, entry *models.PDREntry) error {
	s.log.Info().
		Str("pdr_id", entry.ID).
		Str("action", entry.Action).
		Str("inputs_hash", entry.InputsHash).
		Str("outcome", entry.Outcome).
		Str("work_order", entry.WorkOrderID).
		Str("details", entry.Details).
		Time("at", entry.Timestamp).
		Msg("decision recorded")
	return nil
}
