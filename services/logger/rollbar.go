// Package logsvc reports log entries to Rollbar and mirrors them to a standard logger.
package logsvc

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type RollbarLogger struct {
	client *rollbar.Client
	std    *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetCustom(map[string]interface{}{"app": conf.AppName, "storage": conf.Storage.Backend})
	return &RollbarLogger{client: client, std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Close flushes queued reports.
func (l *RollbarLogger) Close() error {
	return l.client.Close()
}

// entry is a log call split into what Rollbar understands.
// args may hold an error, maps of extra data, and a user.User or audit.Actor.
type entry struct {
	err    error
	extras map[string]interface{}
	person *rollbar.Person
}

func newEntry(args []interface{}) entry {
	e := entry{extras: make(map[string]interface{})}
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			if e.err == nil {
				e.err = a
			}
		case map[string]interface{}:
			for k, v := range a {
				e.extras[k] = v
			}
		case user.User:
			e.person = &rollbar.Person{Id: a.ID, Username: a.Name, Email: a.Email}
		case audit.Actor:
			if a.UserID != "" {
				e.person = &rollbar.Person{Id: a.UserID, Username: a.Role}
			}
			if a.Role != "" {
				e.extras["role"] = a.Role
			}
			if a.IPAddress != "" {
				e.extras["ip_address"] = a.IPAddress
			}
		default:
			e.extras[fmt.Sprintf("arg%d", i)] = a
		}
	}
	return e
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	e := newEntry(args)

	ctx := context.Background()
	if e.person != nil {
		ctx = rollbar.NewPersonContext(ctx, e.person)
	}
	if e.err != nil {
		extras := map[string]interface{}{"message": msg}
		for k, v := range e.extras {
			extras[k] = v
		}
		l.client.ErrorWithExtrasAndContext(ctx, level, e.err, extras)
	} else {
		l.client.MessageWithExtrasAndContext(ctx, level, msg, e.extras)
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(" ")
	b.WriteString(msg)
	if e.err != nil {
		fmt.Fprintf(&b, ": %v", e.err)
	}
	if len(e.extras) > 0 {
		fmt.Fprintf(&b, " %v", e.extras)
	}
	l.std.Println(b.String())
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, msg, args)
}

// Fatal reports, flushes and exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	_ = l.client.Close()
	l.std.Fatal(msg)
}
