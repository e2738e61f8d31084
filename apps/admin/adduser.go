package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a staff account; the password is prompted next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			nu.Password, nu.PasswordConfirm = pwd, pwd
			return cli.addUser(cmd.Context(), nu)
		},
	}
	cmd.Flags().StringVar(&nu.Email, "email", "", "The user's email, used to sign in.")
	cmd.Flags().StringVar(&nu.Name, "name", "", "The user's full name.")
	cmd.Flags().StringVar(&nu.Role, "role", user.RoleAdmin, "One of ADMIN, PRINCIPAL, FORM_MASTER, TEACHER.")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	if err := nu.Validate(cli.validate, cli.users); err != nil {
		return err
	}
	usr, err := cli.users.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s (%s)\n", usr.Email, usr.Role)
	return nil
}
