package app

import (
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// NewProcessCommand creates the process command: run the pipeline for one or
// more species and write valid records to the configured sink.
func (a *App) NewProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process <Genus> <species> [<Genus> <species> ...]",
		Short: "Run the synthesis pipeline for one or more species",
		Long: `Process runs every enabled synthesis module for each given species and
writes valid records to the configured sink.

Species are given as genus/epithet pairs:

  florasynth process Quercus alba Acer rubrum

A species whose name fails taxonomic validation is reported and skipped;
it never affects the other species in the batch.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("species are given as genus/epithet pairs, got %d argument(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entities := make([]types.EntityKey, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				entity := types.NewEntityKey(args[i], args[i+1])
				if err := entity.Validate(); err != nil {
					return err
				}
				entities = append(entities, entity)
			}

			pipeline, err := a.Pipeline(cmd.Context())
			if err != nil {
				return err
			}

			report, err := pipeline.ProcessBatch(cmd.Context(), entities)
			if err != nil {
				return err
			}

			for _, record := range report.Records {
				succeeded, failed, skipped := record.Counts()
				status := "ok"
				if !record.Valid() {
					status = "aborted"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s (modules: %d ok, %d failed, %d skipped)\n",
					record.Entity.String(), status, succeeded, failed, skipped)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d succeeded, %d failed\n", report.Succeeded, report.Failed)

			if report.Succeeded == 0 {
				return fmt.Errorf("no valid records produced")
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d species failed", report.Failed, len(entities))
			}
			return nil
		},
	}
}

// NewSchemaCommand creates the schema command: print the output columns and
// their provenance documentation.
func (a *App) NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the output column schema and provenance table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := a.SchemaPipeline(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tHEADER\tMODULE\tSOURCE\tALGORITHM")
			for _, row := range pipeline.Schema().Documentation() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					row.ColumnID, row.Header, row.Module, row.SourceLabel, row.Algorithm)
			}
			return w.Flush()
		},
	}
}

// NewModulesCommand creates the modules command: list the registered modules
// with their dependencies and criticality.
func (a *App) NewModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List registered synthesis modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := a.SchemaPipeline(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tNAME\tCRITICAL\tDEPENDS ON\tCOLUMNS")
			for _, desc := range pipeline.Descriptors() {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%d\n",
					desc.ID, desc.DisplayName, desc.Critical,
					dependsOn(desc), len(desc.Columns))
			}
			return w.Flush()
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "florasynth %s\n", a.version)
			fmt.Fprintf(out, "  commit:   %s\n", a.commit)
			fmt.Fprintf(out, "  built:    %s\n", a.date)
			fmt.Fprintf(out, "  built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			if a.config.ConfigFile != "" {
				fmt.Fprintf(out, "  config:   %s\n", a.config.ConfigFile)
			}
		},
	}
}

func dependsOn(desc modules.Descriptor) string {
	if len(desc.Dependencies) == 0 {
		return "-"
	}
	return strings.Join(desc.Dependencies, ", ")
}
