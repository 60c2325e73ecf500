package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initName    string
	initStream  string
	initVersion string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize patching metadata for an installation",
	Long: `Initialize the patching metadata of an installation home.

This creates .installation/installation.toml with a single patch stream at
the given version, along with the modules and bundles directories. Patches
can be applied only to initialized installations.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "product", "Product name")
	initCmd.Flags().StringVar(&initStream, "stream", "base", "Name of the patch stream")
	initCmd.Flags().StringVar(&initVersion, "product-version", "", "Installed version of the stream")
	_ = initCmd.MarkFlagRequired("product-version")
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	mgr := s.newManager()
	if err := mgr.Init(initName, initStream, initVersion); err != nil {
		return err
	}

	if jsonOutput {
		info := map[string]string{
			"home":    s.home,
			"name":    initName,
			"stream":  initStream,
			"version": initVersion,
		}
		return outputJSON(info)
	}

	PrintSuccess(fmt.Sprintf("Initialized %s at %s", initName, s.home))
	PrintLabelValue("Stream", initStream)
	PrintLabelValue("Version", initVersion)
	fmt.Println()
	PrintInfo("Next steps:")
	fmt.Println("  1. Apply a patch:     patchkit apply <patch.zip|url>")
	fmt.Println("  2. Review history:    patchkit history")
	fmt.Println("  3. Roll back:         patchkit rollback <patch-id>")
	return nil
}
