// Package storage picks the backend the services run on.
package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/storage/database"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/inmem"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/sheets"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/sqlx"
	"github.com/nickiconcept/E-Result-Management-System/storage/fixtures"
)

// Backend is one storage variant: every repository plus transactions spanning them.
type Backend interface {
	core.Transactor
	io.Closer

	UserRepository() user.Repository
	SchoolRepository() school.Repository
	ScoreRepository() score.Repository
	PinRepository() pin.Repository
	AuditRepository() audit.Repository
	RemarkRepository() remark.Repository
}

var (
	_ Backend = (*inmemdb.DB)(nil)
	_ Backend = (*sqlxrepos.Store)(nil)
	_ Backend = (*sheetsdb.Store)(nil)
)

// Open connects to the backend named by conf.Storage.Backend. The memory backend is seeded
// with the default school data when conf.Storage.Seed is set.
func Open(ctx context.Context, conf *core.Config) (Backend, error) {
	switch conf.Storage.Backend {
	case core.BackendMemory, "":
		db := inmemdb.Open()
		if conf.Storage.Seed {
			if err := school.NewService(db.SchoolRepository()).Seed(ctx, fixtures.School()); err != nil {
				return nil, errors.Wrap(err, "seeding memory store")
			}
		}
		return db, nil

	case core.BackendPostgres:
		db, err := database.Setup(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		return sqlxrepos.NewStore(db), nil

	case core.BackendSheets:
		if conf.Sheets.SpreadsheetID == "" {
			return nil, errors.New("sheets.spreadsheetID is not set")
		}
		ss, err := sheetsdb.NewGoogleSpreadsheet(ctx, conf.Sheets.SpreadsheetID, conf.Sheets.CredentialsFile)
		if err != nil {
			return nil, err
		}
		st, err := sheetsdb.Open(ctx, ss, conf.Storage.OpTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "opening spreadsheet")
		}
		return st, nil
	}
	return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
}
