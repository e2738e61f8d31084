package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNoDatabase       = errors.New("migrate needs the postgres storage backend")
	errNoPassword       = errors.New("no password given")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	db       *sql.DB // nil unless storage is postgres
	users    *user.Service
	schools  *school.Service
	pins     *pin.Service
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "E-Result administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCmd(),
		cli.pinsCmd(),
	)
	return root
}

// run executes the command named in args; args[0] is the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.Execute()
}

// promptPassword reads a password twice without echoing it.
func (cli *commandLine) promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(fd)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errNoPassword
	}

	fmt.Fprint(cli.out, "Confirm password:")
	confirm, err := readPasswordFunc(fd)
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}

// errorMessage renders validation failures field by field.
func errorMessage(err error, translator ut.Translator) string {
	switch cause := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(cause))
		for _, fe := range cause {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Translate(translator)))
		}
		return strings.Join(msgs, "; ")
	case *core.ValidationError:
		if len(cause.Fields) == 0 {
			return cause.Error()
		}
		msgs := make([]string, 0, len(cause.Fields))
		for _, fe := range cause.Fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Error))
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
