package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"topomap/core-go/internal/source"
	"topomap/core-go/internal/topology"
)

var importOpts struct {
	name        string
	serviceName string
	serviceArea string
}

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Store topology files in the configured Postgres database",
	Long: `Import decodes JSON or YAML topology documents and upserts them into the
topologies table, so a server started with sources.database_url can serve them.
Each topology is named after its file unless --name is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Sources.DatabaseURL == "" {
			return errors.New("import needs sources.database_url (or TOPOMAP_SOURCES__DATABASE_URL)")
		}
		if importOpts.name != "" && len(args) > 1 {
			return errors.New("--name can only be used with a single file")
		}

		ctx := cmd.Context()
		pool, err := openDatabase(ctx, cfg.Sources.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := source.NewPostgres(pool.Queries(), pool.Ping)

		ok := color.New(color.FgGreen)
		for _, path := range args {
			doc, err := readDocument(path, importOpts.name)
			if err != nil {
				return err
			}
			for _, w := range doc.Warnings {
				color.New(color.FgYellow).Printf("  warning: %s: %s\n", path, w)
			}
			err = store.Save(ctx, doc, topology.Descriptor{
				ServiceName: importOpts.serviceName,
				ServiceArea: importOpts.serviceArea,
			})
			if err != nil {
				return fmt.Errorf("save %s: %w", doc.Name, err)
			}
			ok.Print("imported ")
			fmt.Printf("%s (%d nodes, %d links)\n", doc.Name, doc.Nodes.Len(), doc.Links.Len())
		}
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.name, "name", "", "topology name (single file only)")
	f.StringVar(&importOpts.serviceName, "service-name", "", "service name recorded with the topology")
	f.StringVar(&importOpts.serviceArea, "service-area", "", "service area recorded with the topology")
	rootCmd.AddCommand(importCmd)
}
