package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/patchkit/internal/engine"
)

var (
	rollbackPolicy             policyFlags
	rollbackTo                 bool
	rollbackResetConfiguration bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <patch-id>",
	Short: "Roll back an applied patch",
	Long: `Roll back the latest patch of its stream, restoring the content the
installation had before the patch was applied.

With --rollback-to, the patch and every patch applied after it in the same
stream are rolled back together. One-off patches invalidated by a rolled back
cumulative patch become active again.

With --reset-configuration, the configuration directories are restored from
the backup taken when the oldest rolled back patch was applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := newEngine()
		if err != nil {
			return err
		}

		policy, err := rollbackPolicy.build(s.config.Policy)
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Rollback(ctx, &engine.RollbackRequest{
			PatchID:            args[0],
			Policy:             policy,
			RollbackTo:         rollbackTo,
			ResetConfiguration: rollbackResetConfiguration,
		})
		if err != nil {
			printConflicts(err)
			return err
		}
		defer func() {
			_ = result.Close()
		}()

		if err := result.Commit(); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Info)
		}
		printPatchInfo("Rolled back", result)
		return nil
	},
}

func init() {
	rollbackPolicy.register(rollbackCmd)
	rollbackCmd.Flags().BoolVar(&rollbackTo, "rollback-to", false, "Also roll back every patch applied after the given one")
	rollbackCmd.Flags().BoolVar(&rollbackResetConfiguration, "reset-configuration", false, "Restore the configuration backed up before the patch")
}
