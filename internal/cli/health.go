package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/rawes/component"
	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/value"
)

type healthReport struct {
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	Details string                 `json:"details"`
	Status  component.HealthStatus `json:"status"`
	Message string                 `json:"message,omitempty"`
}

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service answers",
		Long: `health starts the search client component, sends GET / and reports
the component's description and health. With --fail it exits non-zero
unless every component is healthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := checkFormat(a.flags.output); err != nil {
				return err
			}
			log := a.newLogger(cfg)
			defer func() { _ = log.Close() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reg := component.NewRegistry(component.WithRegistryLogger(log.WithComponent("registry")))
			if err := reg.Register(elastic.NewComponent("elastic", cfg.Elastic,
				elastic.WithLogger(log.WithComponent("elastic")))); err != nil {
				return err
			}
			if err := reg.StartAll(ctx); err != nil {
				return err
			}
			defer func() { _ = reg.StopAll(ctx) }()

			descs := reg.Describe()
			reports := make([]healthReport, 0, len(descs))
			healthy := true
			for i, h := range reg.HealthAll(ctx) {
				reports = append(reports, healthReport{
					Name:    descs[i].Name,
					Type:    descs[i].Type,
					Details: descs[i].Details,
					Status:  h.Status,
					Message: h.Message,
				})
				healthy = healthy && h.Status == component.StatusHealthy
			}

			raw, err := json.Marshal(reports)
			if err != nil {
				return err
			}
			v, err := value.Decode(raw)
			if err != nil {
				return err
			}
			if err := render(a.out, v, a.flags.output, a.flags.jq); err != nil {
				return err
			}
			if a.flags.fail && !healthy {
				return fmt.Errorf("service is not healthy")
			}
			return nil
		},
	}
}
