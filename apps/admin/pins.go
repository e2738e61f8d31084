package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/services/export"
)

func (cli *commandLine) pinsCmd() *cobra.Command {
	var classID, termID, out string
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Generate one result pin per student of a class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.generatePins(cmd.Context(), classID, termID, out)
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "The class ID.")
	cmd.Flags().StringVar(&termID, "term", "", "The term ID.")
	cmd.Flags().StringVar(&out, "out", "", "Write the pins to this .xlsx file instead of the terminal.")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("term")
	return cmd
}

func (cli *commandLine) generatePins(ctx context.Context, classID, termID, out string) error {
	pins, err := cli.pins.GenerateForClass(ctx, audit.Actor{Role: user.RoleAdmin}, classID, termID)
	if err != nil {
		return err
	}
	batch, err := export.NewPinBatch(ctx, cli.schools, pins)
	if err != nil {
		return errors.Wrap(err, "labelling pins")
	}

	if out == "" {
		for _, p := range batch.Pins {
			fmt.Fprintf(cli.out, "%-14s %-24s %s\n", batch.Students[p.StudentID].AdmissionNo, batch.Students[p.StudentID].FullName(), p.Pin)
		}
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating pins file")
	}
	if err = export.WritePinsXLSX(f, batch); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing pins file")
	}
	fmt.Fprintf(cli.out, "wrote %d pins to %s\n", len(pins), out)
	return nil
}
