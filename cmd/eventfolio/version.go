package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventfolio/eventfolio/pkg/core"
)

var (
	versionKind string
	versionID   string
)

// versionCmd represents the version command (promotion)
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Archive the current resource into a historical snapshot",
	Long: `Move a resource's current document and its attachment files into an
immutable versioned/<version> directory. Not atomic: a crash mid-promotion
can leave the resource split between both locations.`,
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := core.ParseKind(versionKind)
		if err != nil {
			fatal("Invalid kind", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("Failed to open catalog", err)
		}

		if err := cat.Store().Promote(context.Background(), kind, versionID); err != nil {
			fatal("Failed to version resource", err)
		}

		fmt.Printf("Resource '%s' archived.\n", versionID)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVarP(&versionKind, "kind", "k", "", "Resource kind (event, command, query, service, domain)")
	versionCmd.Flags().StringVar(&versionID, "id", "", "Resource id")
	versionCmd.MarkFlagRequired("kind")
	versionCmd.MarkFlagRequired("id")
}
