package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eventfolio/eventfolio/pkg/core"
)

var (
	getKind    string
	getID      string
	getVersion string
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a resource",
	Long:  `Read a resource by id, either its current form or an exact historical version.`,
	Run: func(cmd *cobra.Command, args []string) {
		kind, err := core.ParseKind(getKind)
		if err != nil {
			fatal("Invalid kind", err)
		}

		cat, err := openCatalog()
		if err != nil {
			fatal("Failed to open catalog", err)
		}

		res, err := cat.Store().Get(context.Background(), kind, getID, getVersion)
		if err != nil {
			fatal("Failed to read resource", err)
		}

		meta, err := yaml.Marshal(res.Metadata)
		if err != nil {
			fatal("Failed to render metadata", err)
		}

		fmt.Printf("id: %s\nversion: %s\nkind: %s\n", res.ID, res.Version, res.Kind)
		if len(res.Metadata) > 0 {
			os.Stdout.Write(meta)
		}
		if res.Markdown != "" {
			fmt.Printf("\n%s\n", res.Markdown)
		}
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getKind, "kind", "k", "", "Resource kind (event, command, query, service, domain, team, user)")
	getCmd.Flags().StringVar(&getID, "id", "", "Resource id")
	getCmd.Flags().StringVar(&getVersion, "version", "", "Exact version (defaults to current)")
	getCmd.MarkFlagRequired("kind")
	getCmd.MarkFlagRequired("id")
}
