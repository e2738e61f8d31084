package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nickiconcept/E-Result-Management-System/storage/fixtures"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default sessions, terms, classes, arms, subjects and students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx := fixtures.School()
			if err := cli.schools.Seed(cmd.Context(), fx); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "seeded %d sessions, %d terms, %d classes, %d arms, %d subjects, %d students\n",
				len(fx.Sessions), len(fx.Terms), len(fx.Classes), len(fx.Arms), len(fx.Subjects), len(fx.Students))
			return nil
		},
	}
}
