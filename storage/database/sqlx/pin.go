package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nickiconcept/E-Result-Management-System/core/pin"
)

type pinRepository struct {
	st *Store
}

var _ pin.Repository = (*pinRepository)(nil) // interface compliance check

const pinColumns = "id, pin, student_id, term_id, usage_count, max_usage, expiry_date, created_at"

func (repo *pinRepository) CreatePins(ctx context.Context, pins []pin.ResultPin) error {
	if len(pins) == 0 {
		return nil
	}
	rows := make([]pin.ResultPin, len(pins))
	for i, p := range pins {
		p.ExpiryDate = p.ExpiryDate.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		rows[i] = p
	}
	q := `INSERT INTO result_pins (` + pinColumns + `)
		VALUES (:id, :pin, :student_id, :term_id, :usage_count, :max_usage, :expiry_date, :created_at)`
	_, err := repo.st.exec(ctx).NamedExecContext(ctx, q, rows)
	return wrap(err, "inserting pins")
}

func (repo *pinRepository) QueryPins(ctx context.Context, filter pin.QueryFilter) ([]pin.ResultPin, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(col, val string) {
		if val != "" {
			args = append(args, val)
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("pin", filter.Pin)
	add("student_id", filter.StudentID)
	add("term_id", filter.TermID)

	q := "SELECT " + pinColumns + " FROM result_pins"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at, id"

	pins := make([]pin.ResultPin, 0)
	if err := repo.st.exec(ctx).SelectContext(ctx, &pins, q, args...); err != nil {
		return nil, wrap(err, "selecting pins")
	}
	return utcPins(pins), nil
}

// ConsumePin increments in one conditional statement; the row lock taken by the subquery
// makes concurrent checks of the same pin queue behind each other.
func (repo *pinRepository) ConsumePin(ctx context.Context, value, studentID string, now time.Time) (pin.ResultPin, error) {
	q := `UPDATE result_pins SET usage_count = usage_count + 1
		WHERE id = (
			SELECT id FROM result_pins
			WHERE pin = $1 AND student_id = $2 AND usage_count < max_usage AND expiry_date > $3
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE
		) AND usage_count < max_usage
		RETURNING ` + pinColumns

	exec := repo.st.exec(ctx)
	var p pin.ResultPin
	err := exec.GetContext(ctx, &p, q, value, studentID, now.UTC())
	if err == nil {
		return utcPins([]pin.ResultPin{p})[0], nil
	}
	if err != sql.ErrNoRows {
		return pin.ResultPin{}, wrap(err, "consuming pin")
	}

	// nothing consumable: tell the caller why
	var matches []pin.ResultPin
	err = exec.SelectContext(
		ctx, &matches,
		"SELECT "+pinColumns+" FROM result_pins WHERE pin = $1 AND student_id = $2",
		value, studentID,
	)
	if err != nil {
		return pin.ResultPin{}, wrap(err, "selecting pin")
	}
	if _, err = pin.Select(utcPins(matches), now); err != nil {
		return pin.ResultPin{}, err
	}
	// a concurrent check took the last use between the two statements
	return pin.ResultPin{}, pin.ErrPinExhausted
}

func utcPins(pins []pin.ResultPin) []pin.ResultPin {
	for i := range pins {
		pins[i].ExpiryDate = pins[i].ExpiryDate.UTC()
		pins[i].CreatedAt = pins[i].CreatedAt.UTC()
	}
	return pins
}
