package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/silkstream/tunnelctl/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tunnelctl",
	Short: "Provision named tunnels and wire them into local serving config",
	Long: `tunnelctl creates a named tunnel on the remote service, writes the
routing configuration the tunnel runtime consumes, and can append a matching
virtual-host entry to the local web server's configuration.

The workflow is forward-only: once the remote tunnel exists, local failures
are reported as partial results rather than rolled back.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(flagVerbose, flagJSONLogs, nil)
	},
}

var (
	flagVerbose  bool
	flagJSONLogs bool
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// defaultConfigDir is where routing configs and credentials live unless
// overridden with --dir.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cloudflared"
	}
	return filepath.Join(home, ".cloudflared")
}

// Helper functions for consistent output

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func logInfo(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, infoStyle.Render("ℹ ")+fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, warningStyle.Render("⚠ ")+fmt.Sprintf(format, args...))
}

func logError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+fmt.Sprintf(format, args...))
}
