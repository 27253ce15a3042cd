package engine

import "github.com/intervaldb/intervaldb/internal/model"

func (e *Engine) checkNameLen(name *string) error {
	if name != nil && len(*name) > e.limits.MaxNameLen {
		return e.reject(model.NewLimitExceeded("name exceeds MAX_NAME_LEN"))
	}
	return nil
}

func (e *Engine) checkLabelLen(label *string) error {
	if label != nil && len(*label) > e.limits.MaxLabelLen {
		return e.reject(model.NewLimitExceeded("label exceeds MAX_LABEL_LEN"))
	}
	return nil
}

func (e *Engine) checkIntervalCount(currentCount int) error {
	if currentCount >= e.limits.MaxIntervalsPerResource {
		return e.reject(model.NewLimitExceeded("resource exceeds MAX_INTERVALS_PER_RESOURCE"))
	}
	return nil
}

// checkSpan enforces the timestamp bounds and the span-duration ceiling on
// every client-supplied allocation or rule span.
func (e *Engine) checkSpan(span model.Span) error {
	if span.Start < model.MinValidTimestamp || span.End > model.MaxValidTimestamp {
		return e.reject(model.NewLimitExceeded("span endpoint outside MIN_VALID_TIMESTAMP_MS..MAX_VALID_TIMESTAMP_MS"))
	}
	if int64(span.Duration()) > e.limits.MaxSpanDurationMs {
		return e.reject(model.NewLimitExceeded("span exceeds MAX_SPAN_DURATION_MS"))
	}
	return nil
}

// checkNewEntity rejects an interval id already bound in the entity index;
// interval ids are unique per tenant.
func (e *Engine) checkNewEntity(id model.Id) error {
	if _, exists := e.store.ResolveEntity(id); exists {
		return e.reject(model.NewAlreadyExists(id))
	}
	return nil
}

func (e *Engine) checkQueryWindow(span model.Span) error {
	if int64(span.Duration()) > e.limits.MaxQueryWindowMs {
		return e.reject(model.NewLimitExceeded("query window exceeds MAX_QUERY_WINDOW_MS"))
	}
	return nil
}

func (e *Engine) checkBatchSize(n int) error {
	if n > e.limits.MaxBatchSize {
		return e.reject(model.NewLimitExceeded("batch exceeds MAX_BATCH_SIZE"))
	}
	return nil
}

func (e *Engine) checkInClauseSize(n int) error {
	if n > e.limits.MaxInClauseIDs {
		return e.reject(model.NewLimitExceeded("id list exceeds MAX_IN_CLAUSE_IDS"))
	}
	return nil
}
