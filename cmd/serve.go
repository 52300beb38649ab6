package cmd

import (
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/datascopehq/datascope-cli/internal/appstate"
	"github.com/datascopehq/datascope-cli/internal/server"
)

var (
	srvHost        string
	srvPort        int
	srvUsageStats  bool
	srvOpenBrowser bool
	srvRoot        string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the DataScope app server",
	Long: `Serve hosts the analysis pipeline over HTTP: dataset upload, statistics,
cleaning, model and chart recommendations, figures, reports and AI
enhancement. Sessions and dataset metadata persist in a local bbolt store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("host") {
			c.ServerHost = srvHost
		}
		if f.Changed("port") {
			c.ServerPort = srvPort
		}
		if f.Changed("usage-stats") {
			c.UsageStats = srvUsageStats
		}
		if f.Changed("open-browser") {
			c.OpenBrowser = srvOpenBrowser
		}

		root := appRoot(srvRoot)
		storePath := c.StorePath
		if storePath == "" {
			storePath = filepath.Join("temp", "datascope.db")
		}
		if !filepath.IsAbs(storePath) {
			storePath = filepath.Join(root, storePath)
		}
		store, err := appstate.Open(storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		log.Info().Str("store", store.Path()).Msg("session store opened")

		srv := server.New(c, store, server.Options{Version: appVersion, Root: root})
		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvHost, "host", "localhost", "bind address")
	serveCmd.Flags().IntVar(&srvPort, "port", 8501, "bind port")
	serveCmd.Flags().BoolVar(&srvUsageStats, "usage-stats", false, "count runs in the local store (never sent anywhere)")
	serveCmd.Flags().BoolVar(&srvOpenBrowser, "open-browser", false, "open the app URL in the system browser")
	serveCmd.Flags().StringVar(&srvRoot, "root", "", "application root (default: config app_root, else nearest app.yaml)")
}
