package cli

import (
	"fmt"

	"github.com/okian/hirepulse/internal/adapters/loader"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var dataset string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a dataset file decodes and is well formed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ds, err := loader.LoadFile(dataset)
			if err != nil {
				err = errors.Wrap(err, "failed to load dataset")
				return err
			}
			err = loader.Validate(ds)
			if err != nil {
				err = errors.Wrapf(err, "%s is invalid", dataset)
				return err
			}

			sum := ds.Summary()
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"%s: ok (%d requisitions, %d candidates, %d events, %d users)\n",
				sum.Name, sum.Requisitions, sum.Candidates, sum.Events, sum.Users)
			return err
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
