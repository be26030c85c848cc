package cmd

import (
	"github.com/spf13/cobra"

	"github.com/silkstream/tunnelctl/internal/errors"
	"github.com/silkstream/tunnelctl/internal/logging"
	"github.com/silkstream/tunnelctl/internal/provision"
	"github.com/silkstream/tunnelctl/internal/routing"
	"github.com/silkstream/tunnelctl/internal/tunnel"
	"github.com/silkstream/tunnelctl/internal/vhost"
	"github.com/silkstream/tunnelctl/internal/workflow"
)

var provisionCmd = &cobra.Command{
	Use:   "provision <tunnel-name>",
	Short: "Create a named tunnel and write its routing config",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvision,
}

var (
	provConfigName  string
	provHostname    string
	provPort        int
	provDocRoot     string
	provVHost       bool
	provOverwrite   bool
	provDir         string
	provVHostFile   string
	provCloudflared string
)

func init() {
	provisionCmd.Flags().StringVarP(&provConfigName, "config-name", "c", "", "Routing config name (defaults to the sanitized tunnel name)")
	provisionCmd.Flags().StringVarP(&provHostname, "hostname", "H", "", "Public hostname routed through the tunnel (required)")
	provisionCmd.Flags().IntVarP(&provPort, "port", "p", 0, "Local port traffic is forwarded to (required)")
	provisionCmd.Flags().StringVarP(&provDocRoot, "docroot", "d", "", "Document root for the virtual-host entry")
	provisionCmd.Flags().BoolVar(&provVHost, "vhost", false, "Append a virtual-host entry for the hostname")
	provisionCmd.Flags().BoolVar(&provOverwrite, "overwrite", false, "Replace an existing routing config of the same name")
	provisionCmd.Flags().StringVar(&provDir, "dir", "", "Directory for routing configs (defaults to ~/.cloudflared)")
	provisionCmd.Flags().StringVar(&provVHostFile, "vhost-file", "/etc/apache2/extra/httpd-vhosts.conf", "Virtual-host configuration file to patch")
	provisionCmd.Flags().StringVar(&provCloudflared, "cloudflared", "", "Path to the cloudflared binary (defaults to PATH lookup)")
	provisionCmd.MarkFlagRequired("hostname")
	provisionCmd.MarkFlagRequired("port")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	tunnelName := args[0]

	dir := provDir
	if dir == "" {
		dir = defaultConfigDir()
	}

	// The sanitizer only fills in a missing config name; an explicit
	// --config-name is taken as-is and validated like any other field.
	configName := provConfigName
	if configName == "" {
		configName = provision.SanitizeName(tunnelName)
	}

	req := provision.Request{
		TunnelName:   tunnelName,
		ConfigName:   configName,
		Hostname:     provHostname,
		Port:         provPort,
		DocumentRoot: provDocRoot,
		UpdateVHost:  provVHost,
	}

	logging.Debug("starting provisioning workflow",
		"tunnel", req.TunnelName, "config", req.ConfigName,
		"hostname", req.Hostname, "port", req.Port, "vhost", req.UpdateVHost)

	runner := &workflow.Runner{
		Provisioner: &tunnel.Cloudflared{Binary: provCloudflared, OriginDir: dir},
		Writer:      &routing.Writer{Dir: dir, Overwrite: provOverwrite},
		Patcher:     &vhost.Patcher{Path: provVHostFile},
	}

	events := runner.Run(cmd.Context(), req)
	result := workflow.Wait(events, func(msg string) {
		logInfo("%s", msg)
	})

	return reportResult(req, result)
}

func reportResult(req provision.Request, result workflow.Result) error {
	switch result.Status {
	case workflow.StatusSuccess:
		logSuccess("Tunnel %s provisioned", req.TunnelName)
		logInfo("  UUID:   %s", result.Tunnel.UUID)
		logInfo("  Config: %s", result.ConfigPath)
		if result.VHostUpdated {
			logInfo("  VHost:  entry added for %s (reload the web server to apply)", req.Hostname)
		}
		return nil

	case workflow.StatusPartialFailure:
		switch result.Stage {
		case workflow.StageConfig:
			logError("Failed to write routing config: %v", result.Err)
			logWarning("Remote tunnel %s was created but has no local config; delete it manually or retry with --overwrite", result.Tunnel.UUID)
			return errors.ConfigWriteFailed(result.Err)
		default:
			logError("Failed to update virtual hosts: %v", result.Err)
			logWarning("Tunnel and routing config are usable; add the entry for %s manually and reload the web server", req.Hostname)
			return errors.VHostPatchFailed(result.Err)
		}

	default:
		switch result.Stage {
		case workflow.StageValidate:
			if vs, ok := result.Err.(provision.Violations); ok {
				for _, v := range vs {
					logError("%s", v)
				}
			} else {
				logError("%v", result.Err)
			}
			return errors.ValidationFailed(result.Err)
		default:
			logError("Tunnel creation failed: %v", result.Err)
			return errors.ProvisionFailed(result.Err)
		}
	}
}
