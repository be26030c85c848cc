package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/silkstream/tunnelctl/internal/routing"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List routing configs",
	RunE:  runLs,
}

var lsDir string

func init() {
	lsCmd.Flags().StringVar(&lsDir, "dir", "", "Directory for routing configs (defaults to ~/.cloudflared)")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	dir := lsDir
	if dir == "" {
		dir = defaultConfigDir()
	}

	writer := &routing.Writer{Dir: dir}
	configs, err := writer.List()
	if err != nil {
		return fmt.Errorf("failed to list configs: %w", err)
	}

	if len(configs) == 0 {
		logInfo("No routing configs found. Create one with: tunnelctl provision <name> -H <hostname> -p <port>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTUNNEL\tHOSTNAME\tSERVICE")
	fmt.Fprintln(w, "----\t------\t--------\t-------")

	for _, entry := range configs {
		hostname := entry.Config.PrimaryHostname()
		service := ""
		for _, ing := range entry.Config.Ingress {
			if ing.Hostname == hostname && hostname != "" {
				service = ing.Service
				break
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Name, entry.Config.Tunnel, hostname, service)
	}

	return w.Flush()
}
