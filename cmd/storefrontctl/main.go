package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	server  string
	session string
	timeout string
	json    bool
}

func rootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Drive the storefront checkout API from a terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr("STOREFRONT_URL", "http://localhost:8080"), "Storefront API base URL")
	root.PersistentFlags().StringVar(&opts.session, "session", os.Getenv("STOREFRONT_SESSION"), "Checkout session token")
	root.PersistentFlags().StringVar(&opts.timeout, "request-timeout", "15s", "Timeout of a single API request")
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	root.AddCommand(configCmd(opts))
	root.AddCommand(methodsCmd(opts))
	root.AddCommand(checkoutCmd(opts))
	root.AddCommand(statusCmd(opts))

	return root
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
