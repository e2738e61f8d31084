package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/nickiconcept/E-Result-Management-System/apps/api/echo"
	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	logsvc "github.com/nickiconcept/E-Result-Management-System/services/logger"
	"github.com/nickiconcept/E-Result-Management-System/services/ratelimit"
	"github.com/nickiconcept/E-Result-Management-System/services/remarkgen"
	"github.com/nickiconcept/E-Result-Management-System/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	storeLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	storeLogger.Enable(!conf.Debug)
	defer func() {
		_ = storeLogger.Close()
		_ = logger.Close()
	}()

	ctx := context.Background()

	// set up storage
	backend, err := storage.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s storage: %v", conf.Storage.Backend, err), err)
	}
	defer func() {
		if err = backend.Close(); err != nil {
			storeLogger.Error("Failed to close", err)
		}
	}()

	// set up the remark writer; drafting falls back to a stock remark without it
	var writer remark.Writer
	if conf.Gemini.APIKey != "" {
		gemini, err := remarkgen.NewGeminiWriter(ctx, conf.Gemini)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up gemini: %v", err), err)
		}
		defer func() { _ = gemini.Close() }()
		writer = gemini
	}

	// set up the result check throttle
	limitStore, closeLimiter, err := ratelimit.NewStore(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up rate limiter: %v", err), err)
	}
	defer func() { _ = closeLimiter() }()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q (%s)", conf.Build, conf))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up services
	auditSvc := audit.NewService(backend.AuditRepository(), storeLogger)
	usrSvc := user.NewService(backend.UserRepository())
	schoolSvc := school.NewService(backend.SchoolRepository())
	scoreSvc := score.NewService(backend, backend.ScoreRepository(), backend.SchoolRepository(), auditSvc, validate)
	pinSvc := pin.NewService(
		backend.PinRepository(),
		backend.SchoolRepository(),
		backend.ScoreRepository(),
		backend.RemarkRepository(),
		auditSvc,
		validate,
		conf.Pins,
	)
	remarkSvc := remark.NewService(
		backend,
		backend.RemarkRepository(),
		backend.SchoolRepository(),
		backend.ScoreRepository(),
		auditSvc,
		writer,
		validate,
		logger,
	)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Backend)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			SchoolSvc:      schoolSvc,
			ScoreSvc:       scoreSvc,
			PinSvc:         pinSvc,
			AuditSvc:       auditSvc,
			RemarkSvc:      remarkSvc,
			Validate:       validate,
			Translator:     translator,
			RateLimitStore: limitStore,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
