package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password; the password is prompted next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email.")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	sp := user.SetPassword{Email: email, Password: pwd, PasswordConfirm: pwd}
	if err := sp.Validate(cli.validate); err != nil {
		return err
	}
	usr, err := cli.users.SetPassword(ctx, sp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", usr.Email)
	return nil
}
