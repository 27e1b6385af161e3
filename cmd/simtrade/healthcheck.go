package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/efreitasn/simtrade/internal/config"
)

func newHealthcheckCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe /healthz of a running server; exits non-zero when unhealthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				port = cfg.Port
			}

			client := &http.Client{Timeout: 3 * time.Second}
			resp, err := client.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("healthz returned %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "server port (default from config)")
	return cmd
}
