package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	envFiles []string
	rootCmd  = &cobra.Command{
		Use:   "graphfi",
		Short: "Tokenomics pie chart generator",
		Long: `graphfi turns a tokenomics allocation table into a pie chart.

Run "graphfi serve" for the web editor or "graphfi render" to export a
chart from a JSON allocation file.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default: .env)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
