package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventfolio/eventfolio/pkg/catalog"
	"github.com/eventfolio/eventfolio/pkg/core"
)

var (
	removeKind    string
	removeID      string
	removeVersion string
	removePersist bool
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a resource",
	Long: `Delete a resource's matching documents. By default each match's
containing directory is removed, attachments included; --persist-files
deletes only the document files.`,
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := core.ParseKind(removeKind)
		if err != nil {
			fatal("Invalid kind", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("Failed to open catalog", err)
		}

		err = cat.Store().Remove(context.Background(), kind, removeID, removeVersion, catalog.RemoveOptions{
			PersistFiles: removePersist,
		})
		if err != nil {
			fatal("Failed to remove resource", err)
		}

		fmt.Printf("Resource '%s' removed.\n", removeID)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringVarP(&removeKind, "kind", "k", "", "Resource kind (event, command, query, service, domain, team, user)")
	removeCmd.Flags().StringVar(&removeID, "id", "", "Resource id")
	removeCmd.Flags().StringVar(&removeVersion, "version", "", "Exact version to remove (defaults to all matches)")
	removeCmd.Flags().BoolVar(&removePersist, "persist-files", false, "Delete only the document files, keep attachments")
	removeCmd.MarkFlagRequired("kind")
	removeCmd.MarkFlagRequired("id")
}
