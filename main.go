// Command mend fills holes in polygon meshes. It repairs OBJ and STL files
// directly, or runs mend scripts that build, punch and repair meshes.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/mend/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliFlags holds the values bound to command-line flags.
type cliFlags struct {
	configPath     string
	outPath        string
	mergeDistance  float64
	workers        int
	preTriangulate bool
	verbose        bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f cliFlags

	rootCmd := &cobra.Command{
		Use:           "mend",
		Short:         "Fill boundary holes in polygon meshes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !f.verbose {
				log.SetOutput(io.Discard)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "", "YAML config file.")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Log progress to stderr.")

	repairCmd := &cobra.Command{
		Use:   "repair IN",
		Short: "Fill the holes of a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp(cmd, f)
			if err != nil {
				return err
			}
			report, err := app.RepairFile(args[0], f.outPath)
			if err != nil {
				return err
			}
			fmt.Fprint(out, report)
			return nil
		},
	}
	repairCmd.Flags().StringVarP(&f.outPath, "output", "o", "", "Output mesh file (.obj or .stl).")
	repairCmd.Flags().Float64Var(&f.mergeDistance, "merge-distance", 0, "Weld distance for new face corners.")
	repairCmd.Flags().IntVar(&f.workers, "workers", 0, "Loops planned concurrently.")
	repairCmd.Flags().BoolVar(&f.preTriangulate, "pre-triangulate", false, "Split polygons into triangles before finding holes.")
	repairCmd.MarkFlagRequired("output")

	statsCmd := &cobra.Command{
		Use:   "stats IN",
		Short: "Print face statistics and boundary loops of a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp(cmd, f)
			if err != nil {
				return err
			}
			st, err := app.Stats(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "File: %s\n", args[0])
			fmt.Fprintf(out, "Vertices: %d\n", st.Vertices)
			fmt.Fprintf(out, "Faces: %d (%d triangles, %d quads, %d n-gons)\n", st.Faces, st.Triangles, st.Quads, st.NGons)
			fmt.Fprintf(out, "Boundary edges: %d\n", st.BoundaryEdges)
			fmt.Fprintf(out, "Non-manifold edges: %d\n", st.NonManifoldEdges)
			fmt.Fprintf(out, "Boundary loops: %d\n", st.Loops)
			return nil
		},
	}

	evalCmd := &cobra.Command{
		Use:   "eval SCRIPT",
		Short: "Run a mend script and export its meshes as OBJ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newCLIApp(cmd, f)
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result := app.Evaluate(string(source))
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					if e.Line > 0 {
						fmt.Fprintf(out, "%s:%d: %s\n", args[0], e.Line, e.Message)
					} else {
						fmt.Fprintf(out, "%s: %s\n", args[0], e.Message)
					}
				}
				return fmt.Errorf("%s: %d errors", args[0], len(result.Errors))
			}
			for _, r := range result.Reports {
				fmt.Fprint(out, r)
			}
			for _, m := range result.Meshes {
				fmt.Fprintf(out, "mesh %s: %d triangles\n", m.PartName, len(m.Indices)/3)
			}
			if f.outPath == "" {
				return nil
			}
			paths, err := app.Export(result, f.outPath)
			for _, p := range paths {
				fmt.Fprintf(out, "wrote %s\n", p)
			}
			return err
		},
	}
	evalCmd.Flags().StringVarP(&f.outPath, "output", "o", "", "Directory to write one OBJ per mesh.")

	rootCmd.AddCommand(repairCmd, statsCmd, evalCmd)
	return rootCmd
}

// newCLIApp loads the config named by --config and applies flag overrides.
func newCLIApp(cmd *cobra.Command, f cliFlags) (*App, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("merge-distance") {
		cfg.Repair.MergeDistance = f.mergeDistance
	}
	if cmd.Flags().Changed("workers") {
		cfg.Repair.Workers = f.workers
	}
	if cmd.Flags().Changed("pre-triangulate") {
		cfg.Repair.PreTriangulate = f.preTriangulate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewApp(cfg)
}
