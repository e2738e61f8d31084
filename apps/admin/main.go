package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	logsvc "github.com/nickiconcept/E-Result-Management-System/services/logger"
	"github.com/nickiconcept/E-Result-Management-System/storage"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	ctx := context.Background()
	backend, err := storage.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s storage: %v", conf.Storage.Backend, err), err)
	}

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	auditSvc := audit.NewService(backend.AuditRepository(), logger)
	cli := commandLine{
		users:    user.NewService(backend.UserRepository()),
		schools:  school.NewService(backend.SchoolRepository()),
		pins: pin.NewService(
			backend.PinRepository(),
			backend.SchoolRepository(),
			backend.ScoreRepository(),
			backend.RemarkRepository(),
			auditSvc,
			validate,
			conf.Pins,
		),
		validate: validate,
		out:      os.Stdout,
	}
	if st, ok := backend.(*sqlxrepos.Store); ok {
		cli.db = st.DB()
	}

	err = cli.run(os.Args)
	if cerr := backend.Close(); cerr != nil {
		logger.Error("Failed to close storage", cerr)
	}
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", errorMessage(err, translator))
		os.Exit(1)
	}
}
