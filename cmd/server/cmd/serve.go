package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatorauth/internal/server"
	"github.com/dmitrijs2005/gatorauth/internal/server/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [-c config.json] [flags]",
	Short: "Start the authentication server",
	Long: `Start the HTTP server. Settings come from defaults, then the JSON file
given by -c, then GATOR_* environment variables, then flags:

  -a addr   -i app id   -k api key   -d dsn   -driver pgx|sqlite
  -t access ttl (min)   -r refresh ttl (min)   -b bcrypt cost   -o one-time refresh
  -access-private-key -access-public-key -refresh-private-key -refresh-public-key
  -log-level`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(args)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx := context.Background()
		app, err := server.NewApp(ctx, cfg, os.Stdout)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
