package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/inmem"
	"github.com/nickiconcept/E-Result-Management-System/storage/fixtures"
)

// TestPassword satisfies the password policy.
const TestPassword = "Pa$$w0rd!x"

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	suspended bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    user.StatusActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if suspended {
		usr.Status = user.StatusSuspended
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// Env is every service wired on a fresh memory store seeded with the default school data.
type Env struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	Validate   *validator.Validate
	Translator ut.Translator

	Audit   *audit.Service
	Users   *user.Service
	Schools *school.Service
	Scores  *score.Service
	Pins    *pin.Service
	Remarks *remark.Service
}

// Option customizes the repositories an Env is built on.
type Option func(*envRepos)

type envRepos struct {
	audit  audit.Repository
	score  score.Repository
	pin    pin.Repository
	writer remark.Writer
}

func WithAuditRepository(repo audit.Repository) Option {
	return func(r *envRepos) { r.audit = repo }
}

func WithScoreRepository(repo score.Repository) Option {
	return func(r *envRepos) { r.score = repo }
}

func WithPinRepository(repo pin.Repository) Option {
	return func(r *envRepos) { r.pin = repo }
}

func WithRemarkWriter(w remark.Writer) Option {
	return func(r *envRepos) { r.writer = w }
}

func NewEnv(t *testing.T, opts ...Option) Env {
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	if err := school.NewService(db.SchoolRepository()).Seed(context.Background(), fixtures.School()); err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}

	repos := envRepos{
		audit: db.AuditRepository(),
		score: db.ScoreRepository(),
		pin:   db.PinRepository(),
	}
	for _, opt := range opts {
		opt(&repos)
	}

	validate, translator := NewValidator()
	logger := core.NopLogger{}

	auditSvc := audit.NewService(repos.audit, logger)
	return Env{
		Conf:       conf,
		DB:         db,
		Validate:   validate,
		Translator: translator,
		Audit:      auditSvc,
		Users:      user.NewService(db.UserRepository()),
		Schools:    school.NewService(db.SchoolRepository()),
		Scores:     score.NewService(db, repos.score, db.SchoolRepository(), auditSvc, validate),
		Pins: pin.NewService(
			repos.pin, db.SchoolRepository(), repos.score, db.RemarkRepository(), auditSvc, validate, conf.Pins,
		),
		Remarks: remark.NewService(
			db, db.RemarkRepository(), db.SchoolRepository(), repos.score, auditSvc, repos.writer, validate, logger,
		),
	}
}
