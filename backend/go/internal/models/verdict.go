package models

// DuplicateVerdict classifies how a new fact relates to an existing one
// for the same user.
type DuplicateVerdict string

const (
	VerdictIdentical     DuplicateVerdict = "identical"
	VerdictUpdate        DuplicateVerdict = "update"
	VerdictContradiction DuplicateVerdict = "contradiction"
	VerdictUnrelated     DuplicateVerdict = "unrelated"
)

// MergeStrategy is the resolution chosen when a new fact overlaps with
// an existing one.
type MergeStrategy string

const (
	// MergeKeepExisting discards the new fact and leaves the stored one
	// untouched (beyond a strengthen).
	MergeKeepExisting MergeStrategy = "keep_existing"
	// MergeStrengthenExisting discards the new fact but bumps the
	// stored fact's verification counters and score.
	MergeStrengthenExisting MergeStrategy = "strengthen_existing"
	// MergeAppend stores the new fact alongside the existing one,
	// most recent first on retrieval.
	MergeAppend MergeStrategy = "merge_append"
	// MergeReplaceWithNew supersedes the stored fact with the new value.
	MergeReplaceWithNew MergeStrategy = "replace_with_new"
)

// Resolution is the full output of the duplicate resolver: the verdict,
// the matched fact if any, a similarity score and the recommended merge
// strategy.
type Resolution struct {
	Verdict    DuplicateVerdict `json:"verdict"`
	Matched    *Fact            `json:"matched,omitempty"`
	Similarity float64          `json:"similarity"`
	Strategy   MergeStrategy    `json:"strategy"`
}
