package models

import "time"

// StorageTarget names one of the backing stores a fact can live in.
type StorageTarget string

const (
	TargetCache    StorageTarget = "cache"
	TargetDocument StorageTarget = "document_store"
	TargetGraph    StorageTarget = "graph_store"
	TargetVector   StorageTarget = "vector_store"
)

// StorageStatus is the outcome of a single store_fact operation.
type StorageStatus string

const (
	// StatusStored - a brand new fact was written to every target.
	StatusStored StorageStatus = "stored"
	// StatusStrengthened - an identical fact already existed; its
	// counters were bumped instead of writing a duplicate.
	StatusStrengthened StorageStatus = "strengthened"
	// StatusKeptExisting - the existing fact won and nothing was written.
	StatusKeptExisting StorageStatus = "kept_existing"
	// StatusMerged - the new fact was appended next to the existing one.
	StatusMerged StorageStatus = "merged"
	// StatusReplaced - the new fact superseded a contradicting one.
	StatusReplaced StorageStatus = "replaced"
	// StatusRejectedLowConfidence - scored below the storage threshold.
	// A no-op outcome, not an error.
	StatusRejectedLowConfidence StorageStatus = "rejected_low_confidence"
	// StatusFailed - a required store refused the write.
	StatusFailed StorageStatus = "failed"
)

// StorageResult reports what the writer did with one fact: the final
// status, the stores that committed, the stores that did not, and the
// duplicate resolution that drove the decision.
type StorageResult struct {
	FactID     string          `json:"fact_id,omitempty"`
	Status     StorageStatus   `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	Succeeded  []StorageTarget `json:"succeeded,omitempty"`
	Failed     []StorageTarget `json:"failed,omitempty"`
	Resolution *Resolution     `json:"resolution,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
}

// TraceEntry records one step of a memory operation for the per-user
// debug trace: which store was touched, why, how long it took and what
// was decided.
type TraceEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"`
	Store     StorageTarget `json:"store,omitempty"`
	Reason    string        `json:"reason"`
	Latency   time.Duration `json:"latency_ns"`
	Hit       bool          `json:"hit"`
	Decision  string        `json:"decision"`
}
