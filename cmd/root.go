package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the deskgate application
var rootCmd = &cobra.Command{
	Use:   "deskgate",
	Short: "MCP gateway for Gmail and Google Calendar",
	Long: `deskgate exposes typed Gmail and Google Calendar tools to AI assistants
through the Model Context Protocol (MCP).

It validates every tool call, manages the delegated Google credential
(load, refresh, persist), and returns uniform result envelopes or
classified errors.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "deskgate version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
