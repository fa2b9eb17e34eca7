package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-fraud-cases/internal/client"
	"github.com/pesio-ai/be-fraud-cases/internal/config"
)

var rootFlags struct {
	configPath string
	addr       string
	token      string
	output     string
}

var rootCmd = &cobra.Command{
	Use:           "casectl",
	Short:         "Operate the fraud case service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch rootFlags.output {
		case outputTable, outputJSON, outputYAML:
			return nil
		default:
			return fmt.Errorf("unknown output format %q (table, json, yaml)", rootFlags.output)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "path to config.yaml (defaults to ./config.yaml, /etc/be-fraud-cases)")
	pf.StringVar(&rootFlags.addr, "addr", envOr("CASES_GRPC_ADDR", "localhost:9086"), "gRPC address of the case service")
	pf.StringVar(&rootFlags.token, "token", os.Getenv("CASES_TOKEN"), "bearer token for gRPC calls")
	pf.StringVarP(&rootFlags.output, "output", "o", outputTable, "output format: table, json or yaml")
}

func loadConfig() (*config.Config, error) {
	return config.LoadFrom(rootFlags.configPath)
}

func dialCases() (*client.CasesGRPCClient, error) {
	if rootFlags.token == "" {
		return nil, fmt.Errorf("--token (or CASES_TOKEN) is required; see 'casectl token issue'")
	}
	return client.NewCasesGRPCClient(rootFlags.addr, rootFlags.token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
