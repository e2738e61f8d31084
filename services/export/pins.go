// Package export renders result pin batches for printing.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

const (
	PinsSheet       = "Result PINs"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var pinHeaders = []string{"Admission No", "Student", "PIN", "Term", "Max Usage", "Expires"}

// PinBatch is a generated batch with what is needed to label each pin.
type PinBatch struct {
	Pins     []pin.ResultPin
	Students map[string]school.Student // by ID
	TermName string
}

// Lookup finds the records a batch is labelled with.
type Lookup interface {
	GetTerm(ctx context.Context, id string) (school.Term, error)
	GetStudent(ctx context.Context, id string) (school.Student, error)
}

// NewPinBatch labels pins with their students and term. Pins of one batch share a term.
func NewPinBatch(ctx context.Context, lookup Lookup, pins []pin.ResultPin) (PinBatch, error) {
	batch := PinBatch{Pins: pins, Students: make(map[string]school.Student, len(pins))}
	if len(pins) == 0 {
		return batch, nil
	}

	term, err := lookup.GetTerm(ctx, pins[0].TermID)
	if err != nil {
		return PinBatch{}, errors.Wrap(err, "finding pin term")
	}
	batch.TermName = term.Name
	for _, p := range pins {
		if _, ok := batch.Students[p.StudentID]; ok {
			continue
		}
		st, err := lookup.GetStudent(ctx, p.StudentID)
		if err != nil {
			return PinBatch{}, errors.Wrap(err, "finding pin student")
		}
		batch.Students[st.ID] = st
	}
	return batch, nil
}

// WritePinsXLSX writes one row per pin, in batch order.
func WritePinsXLSX(w io.Writer, batch PinBatch) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", PinsSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	for i, h := range pinHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellValue(PinsSheet, cell, h); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}

	for i, p := range batch.Pins {
		st := batch.Students[p.StudentID]
		row := i + 2
		values := []interface{}{st.AdmissionNo, st.FullName(), p.Pin, batch.TermName, p.MaxUsage, p.ExpiryDate.Format("2006-01-02")}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err = f.SetCellValue(PinsSheet, cell, v); err != nil {
				return errors.Wrapf(err, "writing row %d", row)
			}
		}
	}

	// pins are text: keep spreadsheet apps from turning them into numbers
	if len(batch.Pins) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 49})
		if err != nil {
			return errors.Wrap(err, "creating style")
		}
		if err = f.SetCellStyle(PinsSheet, "C2", fmt.Sprintf("C%d", len(batch.Pins)+1), style); err != nil {
			return errors.Wrap(err, "styling pins")
		}
	}
	if err := f.SetColWidth(PinsSheet, "A", "F", 18); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing xlsx")
	}
	return nil
}
