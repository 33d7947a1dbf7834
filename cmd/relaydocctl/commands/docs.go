package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/relaydoc/relaydoc/cmd/relaydocctl/cmdutil"
	"github.com/relaydoc/relaydoc/internal/cli/output"
	"github.com/relaydoc/relaydoc/pkg/apiclient"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect documents on the control plane",
}

var docsInspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "Show snapshot lineage for a document",
	Long: `Show a document's active snapshot and the full snapshot chain
recorded by the control plane, including per-snapshot update counts.

Examples:
  relaydocctl docs inspect doc-42`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsInspect,
}

func init() {
	docsCmd.AddCommand(docsInspectCmd)
}

func runDocsInspect(cmd *cobra.Command, args []string) error {
	docID := args[0]

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	info, err := client.InspectDocument(docID)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return fmt.Errorf("document not found: %s", docID)
		}
		return fmt.Errorf("failed to inspect document: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, info, false, "", documentInfoTable{info})
}

type documentInfoTable struct {
	info *apiclient.DocumentInfo
}

func (t documentInfoTable) Headers() []string {
	return []string{"SNAPSHOT", "PARENT", "KIND", "UPDATES", "CREATED"}
}

func (t documentInfoTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.info.Snapshots))
	for _, snap := range t.info.Snapshots {
		active := ""
		if snap.SnapshotID == t.info.ActiveSnapshotID {
			active = " (active)"
		}
		rows = append(rows, []string{
			snap.SnapshotID + active,
			snap.ParentSnapshotID,
			snap.Kind,
			strconv.Itoa(snap.UpdateCount),
			snap.CreatedAt,
		})
	}
	return rows
}

var _ output.TableRenderer = documentInfoTable{}
