package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventfolio/eventfolio/pkg/catalog"
	"github.com/eventfolio/eventfolio/pkg/core"
)

var (
	writeKind            string
	writeID              string
	writeVersion         string
	writeMarkdown        string
	writeOverride        bool
	writeVersionExisting bool
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a resource document",
	Long: `Create or update a resource. With --version-existing, the current
document is archived under versioned/ first; the new version must then be
strictly greater than the current one.`,
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := core.ParseKind(writeKind)
		if err != nil {
			fatal("Invalid kind", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("Failed to open catalog", err)
		}

		res := core.Resource{
			ID:       writeID,
			Version:  writeVersion,
			Kind:     kind,
			Markdown: writeMarkdown,
		}

		err = cat.Store().Write(context.Background(), res, catalog.WriteOptions{
			Override:               writeOverride,
			VersionExistingContent: writeVersionExisting,
		})
		if err != nil {
			fatal("Failed to write resource", err)
		}

		fmt.Printf("Resource '%s' written.\n", writeID)
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVarP(&writeKind, "kind", "k", "", "Resource kind (event, command, query, service, domain, team, user)")
	writeCmd.Flags().StringVar(&writeID, "id", "", "Resource id")
	writeCmd.Flags().StringVar(&writeVersion, "version", "", "Resource version")
	writeCmd.Flags().StringVarP(&writeMarkdown, "markdown", "m", "", "Body text")
	writeCmd.Flags().BoolVar(&writeOverride, "override", false, "Replace an existing id+version in place")
	writeCmd.Flags().BoolVar(&writeVersionExisting, "version-existing", false, "Archive the current document before writing")
	writeCmd.MarkFlagRequired("kind")
	writeCmd.MarkFlagRequired("id")
}
