package cmd

import (
	"github.com/spf13/cobra"

	"github.com/silkstream/tunnelctl/internal/errors"
	"github.com/silkstream/tunnelctl/internal/logging"
	"github.com/silkstream/tunnelctl/internal/routing"
)

var rmCmd = &cobra.Command{
	Use:   "rm <config-name>",
	Short: "Remove a local routing config",
	Long: `rm deletes the named routing config file. The remote tunnel it
references is never touched; delete it separately with
cloudflared tunnel delete if it is no longer wanted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var rmDir string

func init() {
	rmCmd.Flags().StringVar(&rmDir, "dir", "", "Directory for routing configs (defaults to ~/.cloudflared)")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	name := args[0]

	dir := rmDir
	if dir == "" {
		dir = defaultConfigDir()
	}

	writer := &routing.Writer{Dir: dir}

	cfg, err := writer.Load(name)
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "config not found", err)
	}

	logging.Debug("removing routing config", "name", name, "tunnel", cfg.Tunnel)
	if err := writer.Delete(name); err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to remove config", err)
	}

	logSuccess("Removed routing config %s", name)
	logWarning("Remote tunnel %s still exists; remove it with: cloudflared tunnel delete %s", cfg.Tunnel, cfg.Tunnel)
	return nil
}
