package store

import "log"

// PelletDBStore wraps FileStore[PelletDB].
type PelletDBStore struct {
	*FileStore[PelletDB]
}

func NewPelletDBStore(path string, errLog *log.Logger) *PelletDBStore {
	return &PelletDBStore{FileStore: NewFileStore(path, func() PelletDB { return PelletDB{} }, errLog)}
}

// HopperLevel reads the current hopper level percentage.
func (p *PelletDBStore) HopperLevel() (float64, error) {
	db, err := p.Read()
	if err != nil {
		return 0, err
	}
	return db.HopperLevel, nil
}

// SetHopperLevel persists a newly measured hopper level, as reported by
// the Distance capability (spec §4.4 step 5).
func (p *PelletDBStore) SetHopperLevel(percent float64) error {
	return p.Update(func(db *PelletDB) error {
		db.HopperLevel = percent
		return nil
	})
}
