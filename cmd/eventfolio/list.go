package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventfolio/eventfolio/pkg/catalog"
	"github.com/eventfolio/eventfolio/pkg/core"
)

var (
	listKind       string
	listLatestOnly bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources of a kind",
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := core.ParseKind(listKind)
		if err != nil {
			fatal("Invalid kind", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("Failed to open catalog", err)
		}

		resources, err := cat.Store().List(context.Background(), kind, catalog.ListOptions{
			LatestOnly: listLatestOnly,
		})
		if err != nil {
			fatal("Failed to list resources", err)
		}

		for _, res := range resources {
			if res.Version != "" {
				fmt.Printf("%s@%s\n", res.ID, res.Version)
				continue
			}
			fmt.Println(res.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Resource kind (event, command, query, service, domain, team, user)")
	listCmd.Flags().BoolVar(&listLatestOnly, "latest-only", false, "Exclude historical snapshots")
	listCmd.MarkFlagRequired("kind")
}
