package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/patchkit/internal/engine"
)

var historyStream string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the patching history",
	Long: `Show the patches applied to each stream, newest first.

Inactive one-off patches were invalidated by a later cumulative patch and
become active again when that patch is rolled back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.History(&engine.HistoryRequest{Stream: historyStream})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		for _, st := range result.Streams {
			PrintSection(fmt.Sprintf("%s %s", st.Stream, st.Version))
			if len(st.Entries) == 0 {
				PrintEmptyState("No patches applied")
				continue
			}

			rows := make([][]string, 0, len(st.Entries))
			for _, entry := range st.Entries {
				status := "active"
				if !entry.Active {
					status = "inactive"
				}
				rows = append(rows, []string{
					entry.PatchID,
					entry.Type,
					versionRange(entry.VersionBefore, entry.VersionAfter),
					status,
					entry.AppliedAt.Local().Format(time.DateTime),
				})
			}
			PrintTable([]string{"PATCH", "TYPE", "VERSION", "STATUS", "APPLIED"}, rows)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyStream, "stream", "s", "", "Only show the given stream")
}

func versionRange(before, after string) string {
	if before == after {
		return after
	}
	return before + " -> " + after
}
