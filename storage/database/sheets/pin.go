package sheetsdb

import (
	"context"
	"sort"
	"time"

	"github.com/nickiconcept/E-Result-Management-System/core/pin"
)

type pinRepository struct {
	st *Store
}

var _ pin.Repository = (*pinRepository)(nil) // interface compliance check

func pinCells(p pin.ResultPin) cells {
	return cells{
		"id":          p.ID,
		"pin":         p.Pin,
		"student_id":  p.StudentID,
		"term_id":     p.TermID,
		"usage_count": p.UsageCount,
		"max_usage":   p.MaxUsage,
		"expiry_date": formatTime(p.ExpiryDate),
		"created_at":  formatTime(p.CreatedAt),
	}
}

func decodePin(d *decoder) pin.ResultPin {
	return pin.ResultPin{
		ID:         d.String("id"),
		Pin:        d.String("pin"),
		StudentID:  d.String("student_id"),
		TermID:     d.String("term_id"),
		UsageCount: d.Int("usage_count"),
		MaxUsage:   d.Int("max_usage"),
		ExpiryDate: d.Time("expiry_date"),
		CreatedAt:  d.Time("created_at"),
	}
}

// CreatePins appends every pin in one request.
func (repo *pinRepository) CreatePins(ctx context.Context, pins []pin.ResultPin) error {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	rows := make([]cells, len(pins))
	for i, p := range pins {
		rows[i] = pinCells(p)
	}
	return repo.st.insert(ctx, pinsTable, rows...)
}

func (repo *pinRepository) QueryPins(ctx context.Context, filter pin.QueryFilter) ([]pin.ResultPin, error) {
	all, err := listAll(ctx, repo.st, pinsTable, decodePin)
	if err != nil {
		return nil, err
	}
	pins := make([]pin.ResultPin, 0, len(all))
	for _, p := range all {
		if filter.Match(p) {
			pins = append(pins, p)
		}
	}
	sort.SliceStable(pins, func(i, j int) bool { return pins[i].CreatedAt.Before(pins[j].CreatedAt) })
	return pins, nil
}

// ConsumePin reads, picks and writes back the usage count while holding the store lock.
func (repo *pinRepository) ConsumePin(ctx context.Context, value, studentID string, now time.Time) (pin.ResultPin, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return pin.ResultPin{}, err
	}
	defer release()

	records, err := repo.st.rows(ctx, pinsTable)
	if err != nil {
		return pin.ResultPin{}, err
	}

	var (
		matches []pin.ResultPin
		nums    []int
	)
	for _, r := range records {
		if !eq("pin", value)(r.cells) || !eq("student_id", studentID)(r.cells) {
			continue
		}
		p, err := decodeOne(pinsTable, r, decodePin)
		if err != nil {
			return pin.ResultPin{}, err
		}
		matches = append(matches, p)
		nums = append(nums, r.num)
	}

	i, err := pin.Select(matches, now)
	if err != nil {
		return pin.ResultPin{}, err
	}
	p := matches[i]
	p.UsageCount++
	if err = repo.st.update(ctx, pinsTable, nums[i], pinCells(p)); err != nil {
		return pin.ResultPin{}, err
	}
	return p, nil
}
