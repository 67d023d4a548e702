package cli

import (
	"context"
	"encoding/json"
	"time"

	"github.com/okian/hirepulse/internal/adapters/loader"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	"github.com/okian/hirepulse/pkg/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	dataset        string
	now            string
	pretty         bool
	recruiters     []string
	functions      []string
	jobFamilies    []string
	levels         []string
	regions        []string
	hiringManagers []string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the velocity analysis over a dataset file",
		Long: `Runs candidate and requisition decay analysis, the fast versus slow
cohort comparison, and insight generation, then prints the result as JSON.

Filter flags restrict the requisitions analyzed. A flag that is not given
leaves that dimension unrestricted.

Examples:
  hirepulsectl analyze --dataset export.yaml
  hirepulsectl analyze --dataset export.json --recruiter alice --region EMEA
  hirepulsectl analyze --dataset export.json --now 2024-06-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "", "Dataset file (.json, .yaml or .yml)")
	f.StringVar(&opts.now, "now", "", "Reference time as RFC3339 (default: current time)")
	f.BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	f.StringSliceVar(&opts.recruiters, "recruiter", nil, "Restrict to recruiter ids")
	f.StringSliceVar(&opts.functions, "function", nil, "Restrict to functions")
	f.StringSliceVar(&opts.jobFamilies, "job-family", nil, "Restrict to job families")
	f.StringSliceVar(&opts.levels, "level", nil, "Restrict to levels")
	f.StringSliceVar(&opts.regions, "region", nil, "Restrict to regions")
	f.StringSliceVar(&opts.hiringManagers, "hiring-manager", nil, "Restrict to hiring manager ids")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) (err error) {
	ctx := context.Background()
	log := logger.Get().Named("analyze")

	now := time.Now().UTC()
	if opts.now != "" {
		now, err = time.Parse(time.RFC3339, opts.now)
		if err != nil {
			err = errors.Wrap(err, "invalid --now")
			return err
		}
	}

	var ds *model.Dataset
	ds, err = loader.LoadFile(opts.dataset)
	if err != nil {
		err = errors.Wrap(err, "failed to load dataset")
		return err
	}
	err = loader.Validate(ds)
	if err != nil {
		err = errors.Wrap(err, "dataset failed validation")
		return err
	}

	in := velocity.Input{
		Candidates:   ds.Candidates,
		Requisitions: ds.Requisitions,
		Events:       ds.Events,
		Users:        ds.Users,
		Filter:       opts.filter(),
	}

	start := time.Now()
	res := velocity.Analyze(in, now)
	log.Debug(ctx, "analysis finished",
		logger.String("dataset", ds.Name),
		logger.Duration("took", time.Since(start)),
		logger.Int("offers", res.CandidateDecay.TotalOffers),
		logger.Int("requisitions", res.RequisitionDecay.TotalReqs),
		logger.Int("insights", len(res.Insights)),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	err = enc.Encode(res)
	if err != nil {
		err = errors.Wrap(err, "failed to write result")
		return err
	}
	return err
}

// filter restricts the dimensions whose flags carry values. An empty flag
// leaves its dimension open, matching an empty JSON array.
func (o *analyzeOptions) filter() model.Filter {
	return model.Filter{
		RecruiterIDs:     model.FromValues(o.recruiters),
		Functions:        model.FromValues(o.functions),
		JobFamilies:      model.FromValues(o.jobFamilies),
		Levels:           model.FromValues(o.levels),
		Regions:          model.FromValues(o.regions),
		HiringManagerIDs: model.FromValues(o.hiringManagers),
	}
}
