package main

import (
	"github.com/ironsheep/avatar-mosaic/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serves the avatar tools over the MCP protocol on stdin/stdout.
Configure it in your MCP client (e.g., Claude Desktop). Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger.Debug("starting MCP server", "version", Version, "build_time", BuildTime, "commit", GitCommit)

		srv := server.New(
			server.WithLogger(logger),
			server.WithGridDefaults(cfg.Grid),
			server.WithVersion(Version),
		)
		return srv.RunIO(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
