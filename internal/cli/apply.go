package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/patchkit/internal/engine"
)

var applyPolicy policyFlags

var applyCmd = &cobra.Command{
	Use:   "apply <patch>",
	Short: "Apply a patch to the installation",
	Long: `Apply a patch to the installation home.

<patch> is a patch zip, an unpacked patch directory or an http(s) URL. A zip
holding patches.xml is applied as a bundle: each element is applied in order
and all of them are rolled back if one fails.

Items modified locally since they were installed are reported as conflicts
unless a policy flag says how to treat them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := newEngine()
		if err != nil {
			return err
		}

		policy, err := applyPolicy.build(s.config.Policy)
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Apply(ctx, &engine.ApplyRequest{
			Source: engine.SourceFor(args[0]),
			Policy: policy,
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
			return outputJSON(resultInfos(result))
		}

		if len(result.Entries) > 0 || len(result.Skipped) > 0 {
			for _, id := range result.Skipped {
				PrintWarning(fmt.Sprintf("Skipped %s: already applied", id))
			}
			for _, entry := range result.Entries {
				printPatchInfo("Applied", entry)
			}
			return nil
		}
		printPatchInfo("Applied", result)
		return nil
	},
}

func init() {
	applyPolicy.register(applyCmd)
}

// resultInfos flattens a result into the patches it covers.
func resultInfos(result *engine.PatchingResult) []engine.PatchInfo {
	if len(result.Entries) == 0 && result.Info.ID != "" {
		return []engine.PatchInfo{result.Info}
	}
	infos := make([]engine.PatchInfo, 0, len(result.Entries))
	for _, entry := range result.Entries {
		infos = append(infos, entry.Info)
	}
	return infos
}

func printPatchInfo(verb string, result *engine.PatchingResult) {
	info := result.Info
	PrintSuccess(fmt.Sprintf("%s %s (%s)", verb, info.ID, PrintCount(result.Tasks, "task", "tasks")))
	if info.Description != "" {
		PrintLabelValue("Description", info.Description)
	}
	PrintLabelValue("Stream", info.Stream)
	if info.VersionBefore != info.VersionAfter {
		PrintLabelValue("Version", fmt.Sprintf("%s -> %s", info.VersionBefore, info.VersionAfter))
	} else {
		PrintLabelValue("Version", info.VersionAfter)
	}
	if len(info.Invalidated) > 0 {
		PrintSubsection("Invalidated one-off patches:")
		PrintList(info.Invalidated, 2)
	}
	if len(info.RolledBack) > 1 {
		PrintSubsection("Rolled back:")
		PrintNumberedList(info.RolledBack, 2)
	}
}

// printConflicts lists the items that blocked a patch.
func printConflicts(err error) {
	var conflict *engine.ConflictError
	if !errors.As(err, &conflict) {
		return
	}
	PrintSection("Conflicts Detected")
	for _, item := range conflict.Items {
		PrintError(item.String())
	}
	fmt.Println()
	PrintWarning("Use --override-all, --preserve-all, --override or --preserve to resolve conflicts.")
}
