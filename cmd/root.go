package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "x360carve",
	Short: "x360carve - Xbox 360 memory dump asset carver",
	Long:  "x360carve scans Xbox 360 memory dumps for embedded game assets (textures, audio, models, scripts, executables) and carves them to disk with a session manifest.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
	}
}

func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
