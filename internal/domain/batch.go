package domain

// BatchItemError records a single failed item within a batch operation.
// Key is the item's external id, or a positional marker such as "entry[3]"
// when the id itself was missing.
type BatchItemError struct {
	Key    string
	Reason string
}

// BatchResult is the authoritative outcome of a batch upsert or ingest.
//
// The batch runs inside one storage transaction, but items are attempted
// independently: the persisted result can be a partial subset of the
// input. Callers must treat Processed and Errors as the source of truth
// and must not assume all-or-nothing semantics.
type BatchResult struct {
	Processed int
	Errors    []BatchItemError
}

// AddError appends an item-level error.
func (r *BatchResult) AddError(key, reason string) {
	r.Errors = append(r.Errors, BatchItemError{Key: key, Reason: reason})
}

// HasErrors reports whether any item failed.
func (r *BatchResult) HasErrors() bool {
	return len(r.Errors) > 0
}
