// Command careflow runs the retention conversation service, either as
// an HTTP server or as an interactive terminal chat.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/techflow-labs/careflow/pkg/logger/autoload"
)

func main() {
	root := &cobra.Command{
		Use:           "careflow",
		Short:         "Customer retention conversation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newChatCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
