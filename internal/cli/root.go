package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
	"github.com/dbiton/DoctorantMemory/internal/logging"
	"github.com/dbiton/DoctorantMemory/internal/navtree"
)

// logger is replaced by the root command's PersistentPreRunE; commands run
// directly (tests) log nowhere.
var logger = zap.NewNop()

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doctorant",
		Short: "Record and convert drcachesim memory traces",
		Long: `doctorant wraps DynamoRIO's drcachesim: it records application traces,
replays them through drcachesim's simulators and converts the raw view
output into DoctorantMemory's access CSV with a statistics header.

It also carries the DrMemory design document navigation tree and can
encode, validate, build, check and serve Doxygen navigation scripts.

Settings are read from doctorant.yml when present; flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := OptionalBoolFlag(cmd, "verbose", false)
			if err != nil {
				return err
			}
			built, err := logging.New(verbose)
			if err != nil {
				return err
			}
			logger = built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./doctorant.yml if present)")

	// Trace Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default doctorant.yml in the current directory",
		RunE:  RunInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing doctorant.yml")

	generateCmd := &cobra.Command{
		Use:   "generate [--app PATH] [-- app args...]",
		Short: "Run an application under drcachesim and record an offline trace",
		RunE:  RunGenerate,
	}
	generateCmd.Flags().String("app", "", "Application to instrument (default: first positional argument)")
	addTraceFlags(generateCmd)
	generateCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Replay a recorded trace through a simulator tool",
		Long: fmt.Sprintf(`Replay a recorded trace through a simulator tool.

Tools: %v

memory_accesses converts drcachesim's view output into an access CSV
(timestamp,tid,address,size,op) preceded by statistics and hot addresses.`, drcachesim.ToolNames()),
		Args: cobra.NoArgs,
		RunE: RunParse,
	}
	parseCmd.Flags().String("tool", drcachesim.ToolCacheSimulator, "Simulator tool name")
	addTraceFlags(parseCmd)
	parseCmd.Flags().Bool("ignore-inst", false, "Leave instruction fetches out of memory_accesses output")
	parseCmd.Flags().Int("hot-addresses", drcachesim.DefaultReportOptions().HotCount, "Hot addresses listed in the memory_accesses header")
	parseCmd.Flags().Int("alignment", drcachesim.DefaultReportOptions().Alignment, "Cache line size in bytes used to group hot addresses")
	parseCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	// Inspect Commands
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded runs and whether their outputs changed",
		RunE:  RunStatus,
	}
	statusCmd.Flags().String("output-path", "", "Output directory holding the run state")
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, drrun and run state",
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("doctorant %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		generateCmd,
		parseCmd,
		newNavCommand(),
		statusCmd,
		doctorCmd,
		versionCmd,
	)

	return rootCmd
}

func addTraceFlags(cmd *cobra.Command) {
	cmd.Flags().String("trace-path", "", "Trace directory (default from config: .)")
	cmd.Flags().String("output-path", "", "Output directory, created when missing (default from config: .)")
	cmd.Flags().String("additional-options", "", "Options passed to drcachesim verbatim")
}

func newNavCommand() *cobra.Command {
	navCmd := &cobra.Command{
		Use:   "nav",
		Short: "Inspect and produce Doxygen navigation trees",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the navigation tree as an outline",
		Args:  cobra.NoArgs,
		RunE:  RunNavShow,
	}
	addTreeSourceFlags(showCmd)
	showCmd.Flags().Bool("links", false, "Show each entry's link")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Encode the navigation tree as js, json or yaml",
		Args:  cobra.NoArgs,
		RunE:  RunNavExport,
	}
	addTreeSourceFlags(exportCmd)
	exportCmd.Flags().String("format", string(navtree.FormatJS), "Output format: js|json|yaml")
	exportCmd.Flags().String("out", "", "Write to file instead of stdout")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a navigation tree's structure",
		Args:  cobra.NoArgs,
		RunE:  RunNavValidate,
	}
	addTreeSourceFlags(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print machine-readable validation output")

	buildCmd := &cobra.Command{
		Use:   "build <page.md>",
		Short: "Build a navigation tree from Markdown headings",
		Args:  cobra.ExactArgs(1),
		RunE:  RunNavBuild,
	}
	buildCmd.Flags().String("page", "", "Generated HTML page the entries link to (required)")
	buildCmd.Flags().String("title", "", "Title of the page entry (default: first level 1 heading)")
	buildCmd.Flags().String("var", "", "JavaScript variable name (default: derived from --page)")
	buildCmd.Flags().Int("first-anchor", 1, "First autotoc_md anchor number")
	buildCmd.Flags().Int("max-level", 0, "Deepest heading level to include (0: all)")
	buildCmd.Flags().String("format", string(navtree.FormatJS), "Output format: js|json|yaml")
	buildCmd.Flags().String("out", "", "Write to file instead of stdout")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve every link against generated HTML pages",
		Args:  cobra.NoArgs,
		RunE:  RunNavCheck,
	}
	addTreeSourceFlags(checkCmd)
	checkCmd.Flags().String("html-dir", "", "Directory of generated HTML pages")
	checkCmd.Flags().Int("concurrency", 4, "Pages scanned in parallel")
	checkCmd.Flags().Bool("json", false, "Print machine-readable results")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the navigation tree over HTTP",
		Args:  cobra.NoArgs,
		RunE:  RunNavServe,
	}
	addTreeSourceFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config: :8080)")
	serveCmd.Flags().Bool("watch", false, "Reload the tree when --file changes")

	navCmd.AddCommand(showCmd, exportCmd, validateCmd, buildCmd, checkCmd, serveCmd)
	return navCmd
}

func addTreeSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Navigation script or js/json/yaml export (default: built-in design docs tree)")
	cmd.Flags().String("var", "", "Variable to read from a script holding several trees")
}
