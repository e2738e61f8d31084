package inmemdb

import (
	"context"
	"time"

	"github.com/nickiconcept/E-Result-Management-System/core/pin"
)

type pinRepository struct {
	db *pinTable
}

var _ pin.Repository = (*pinRepository)(nil) // interface compliance check

func NewPinRepository(db *DB) *pinRepository {
	return &pinRepository{db: db.pin}
}

func (repo *pinRepository) CreatePins(ctx context.Context, pins []pin.ResultPin) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make(map[string]bool, len(pins))
	for _, p := range pins {
		created[p.ID] = true
	}
	repo.db.t = append(repo.db.t, pins...)
	onRollback(ctx, func() {
		repo.db.mutex.Lock()
		defer repo.db.mutex.Unlock()
		kept := repo.db.t[:0]
		for _, p := range repo.db.t {
			if !created[p.ID] {
				kept = append(kept, p)
			}
		}
		repo.db.t = kept
	})
	return nil
}

func (repo *pinRepository) QueryPins(_ context.Context, filter pin.QueryFilter) ([]pin.ResultPin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pins := make([]pin.ResultPin, 0)
	for _, p := range repo.db.t {
		if filter.Match(p) {
			pins = append(pins, p)
		}
	}
	return pins, nil
}

// ConsumePin selects and increments under the table lock, so two checks can never both take the last use.
func (repo *pinRepository) ConsumePin(_ context.Context, value, studentID string, now time.Time) (pin.ResultPin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var (
		matches []pin.ResultPin
		indexes []int
	)
	for i, p := range repo.db.t {
		if p.Pin == value && p.StudentID == studentID {
			matches = append(matches, p)
			indexes = append(indexes, i)
		}
	}
	i, err := pin.Select(matches, now)
	if err != nil {
		return pin.ResultPin{}, err
	}

	p := &repo.db.t[indexes[i]]
	p.UsageCount++
	return *p, nil
}
