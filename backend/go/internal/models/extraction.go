package models

import "time"

// FactCandidate is one raw fact proposed by the extractor service. The
// extractor gives no guarantee of correctness; the engine validates and
// scores every candidate independently.
type FactCandidate struct {
	Category     Category `json:"category"`
	Value        string   `json:"value"`
	Source       Source   `json:"source"`
	OriginalText string   `json:"original_text,omitempty"`
}

// ExtractionBatch is the message the extractor publishes to Kafka after
// processing a conversation turn.
type ExtractionBatch struct {
	UserID      string          `json:"user_id"`
	TraceID     string          `json:"trace_id,omitempty"`
	Candidates  []FactCandidate `json:"candidates"`
	ExtractedAt time.Time       `json:"extracted_at"`
}
