package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techflow-labs/careflow/api"
	configx "github.com/techflow-labs/careflow/pkg/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, err := buildRouter(cmd.Context())
			if err != nil {
				return err
			}

			apiCfg, err := configx.New[api.Config]("API")
			if err != nil {
				return fmt.Errorf("load api config: %w", err)
			}
			return api.NewServer(router).ListenAndServe(*apiCfg)
		},
	}
}
