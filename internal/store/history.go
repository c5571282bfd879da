package store

import "log"

// maxHistorySamples bounds the in-memory/on-disk history so an unattended
// cook doesn't grow the file without limit; the real cook-file archival
// this would eventually roll into is out of scope (spec §1).
const maxHistorySamples = 100000

// HistoryStore wraps FileStore[History] with an Append operation.
type HistoryStore struct {
	*FileStore[History]
}

func NewHistoryStore(path string, errLog *log.Logger) *HistoryStore {
	return &HistoryStore{FileStore: NewFileStore(path, func() History { return History{} }, errLog)}
}

// Append adds one sample to the time-series, trimming the oldest entries
// if the bound is exceeded.
func (h *HistoryStore) Append(sample HistorySample) error {
	return h.Update(func(hist *History) error {
		hist.Samples = append(hist.Samples, sample)
		if len(hist.Samples) > maxHistorySamples {
			hist.Samples = hist.Samples[len(hist.Samples)-maxHistorySamples:]
		}
		return nil
	})
}
