package commands

import (
	"fmt"
	"os"

	"github.com/relaydoc/relaydoc/cmd/relaydocctl/cmdutil"
	"github.com/relaydoc/relaydoc/internal/cli/health"
	"github.com/spf13/cobra"
)

var healthReadiness bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check control plane liveness or readiness",
	Long: `Probe the control plane's /health or /health/ready endpoint.

Examples:
  relaydocctl health
  relaydocctl health --ready`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthReadiness, "ready", false, "probe readiness instead of liveness")
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	var resp *health.Response
	if healthReadiness {
		resp, err = client.Readiness()
	} else {
		resp, err = client.Liveness()
	}
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := cmdutil.PrintOutput(os.Stdout, resp, false, "", healthTable{resp}); err != nil {
		return err
	}

	if resp.Status != "healthy" {
		os.Exit(1)
	}
	return nil
}

type healthTable struct {
	resp *health.Response
}

func (t healthTable) Headers() []string { return []string{"STATUS"} }
func (t healthTable) Rows() [][]string  { return [][]string{{t.resp.Status}} }
