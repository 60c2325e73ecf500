package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the installed streams and active patches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Info()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection(result.Name)
		PrintLabelValue("Home", result.Home)
		for _, st := range result.Streams {
			PrintSubsection(st.Name)
			PrintLabelValueWithColor("Version", st.Version, successColor)
			patches := "none"
			if len(st.Patches) > 0 {
				patches = strings.Join(st.Patches, ", ")
			}
			PrintLabelValue("Active patches", patches)
		}
		return nil
	},
}
