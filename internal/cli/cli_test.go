package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbiton/DoctorantMemory/internal/config"
	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
	"github.com/dbiton/DoctorantMemory/internal/navtree"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

const sampleView = `Output format:
<--record#-> <--instr#->: <---tid---> <record details>
------------------------------------------------------------
           1           0:        4242 <marker: timestamp 5000>
           2           1:        4242 ifetch       4 byte(s) @ 0x0000000000002000 non-branch
           3           1:        4242 read         8 byte(s) @ 0x0000000000002010 by PC 0x0000000000002000
           4           2:        4242 <marker: timestamp 7000>
           5           2:        4242 write        4 byte(s) @ 0x0000000000002008 by PC 0x0000000000002004
View tool results:
`

func TestGenerateRecordsRun(t *testing.T) {
	root := t.TempDir()
	calls := useFakeRunner(t, "app finished\n")

	withWorkingDir(t, root, func() {
		cmd := newGenerateCmdForTest()
		mustSetFlag(t, cmd, "app", "./bench")
		mustSetFlag(t, cmd, "trace-path", "traces")
		mustSetFlag(t, cmd, "output-path", "out")
		mustSetFlag(t, cmd, "additional-options", "-verbose 2")

		out := captureStdout(t, func() {
			if err := RunGenerate(cmd, []string{"--size", "4"}); err != nil {
				t.Fatalf("RunGenerate failed: %v", err)
			}
		})

		if len(*calls) != 1 {
			t.Fatalf("expected one drrun call, got %d", len(*calls))
		}
		want := []string{
			config.DefaultDrrun(), "-t", "drcachesim",
			"-verbose", "2", "-offline", "-outdir", "traces", "--", "./bench", "--size", "4",
		}
		if strings.Join((*calls)[0], " ") != strings.Join(want, " ") {
			t.Fatalf("unexpected command:\n got %v\nwant %v", (*calls)[0], want)
		}

		printed := strings.TrimSpace(out)
		if !strings.HasPrefix(printed, filepath.Join("out", "drcachesim_output_")) {
			t.Fatalf("expected output path on stdout, got %q", out)
		}
		assertExists(t, printed)
		assertExists(t, filepath.Join(root, "traces"))

		st, err := state.Load("out")
		if err != nil {
			t.Fatalf("failed to load state: %v", err)
		}
		if len(st.Runs) != 1 || st.Runs[0].Operation != "generate" {
			t.Fatalf("expected one generate run, got %+v", st.Runs)
		}
		if len(st.Runs[0].Outputs) != 1 || len(st.OutputHashes) != 1 {
			t.Fatalf("expected the output file to be tracked, got %+v", st.Runs[0])
		}
	})
}

func TestGenerateUsesFirstArgumentAsApp(t *testing.T) {
	root := t.TempDir()
	calls := useFakeRunner(t, "")

	withWorkingDir(t, root, func() {
		captureStdout(t, func() {
			if err := RunGenerate(newGenerateCmdForTest(), []string{"./bench", "-n"}); err != nil {
				t.Fatalf("RunGenerate failed: %v", err)
			}
		})
		got := strings.Join((*calls)[0], " ")
		if !strings.HasSuffix(got, "-offline -outdir . -- ./bench -n") {
			t.Fatalf("unexpected command %q", got)
		}
	})
}

func TestGenerateRequiresApp(t *testing.T) {
	root := t.TempDir()
	useFakeRunner(t, "")
	withWorkingDir(t, root, func() {
		if err := RunGenerate(newGenerateCmdForTest(), nil); err == nil {
			t.Fatalf("expected error without an application")
		}
	})
}

func TestParseMemoryAccessesWritesReport(t *testing.T) {
	root := t.TempDir()
	calls := useFakeRunner(t, sampleView)

	withWorkingDir(t, root, func() {
		cmd := newParseCmdForTest()
		mustSetFlag(t, cmd, "tool", "memory_accesses")
		mustSetFlag(t, cmd, "trace-path", "traces")
		mustSetFlag(t, cmd, "output-path", "out")
		mustSetFlag(t, cmd, "ignore-inst", "true")
		mustSetFlag(t, cmd, "json", "true")

		out := captureStdout(t, func() {
			if err := RunParse(cmd, nil); err != nil {
				t.Fatalf("RunParse failed: %v", err)
			}
		})

		var summary RunSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode summary: %v\n%s", err, out)
		}
		if summary.Tool != drcachesim.ToolMemoryAccesses || summary.Rows != 2 || len(summary.Outputs) != 3 {
			t.Fatalf("unexpected summary %+v", summary)
		}

		got := strings.Join((*calls)[0], " ")
		if !strings.HasSuffix(got, "-indir traces -simulator_type view") {
			t.Fatalf("unexpected command %q", got)
		}

		var tracePath string
		for _, output := range summary.Outputs {
			if strings.HasPrefix(output.Path, "doctorant_memory_trace_") {
				tracePath = filepath.Join("out", output.Path)
			}
		}
		if tracePath == "" {
			t.Fatalf("expected converted trace among outputs %+v", summary.Outputs)
		}
		data, err := os.ReadFile(tracePath)
		if err != nil {
			t.Fatalf("failed to read trace: %v", err)
		}
		text := string(data)
		for _, want := range []string{
			"# cacheline size: 16\n",
			"# max address: 16\n",
			"# max timestamp: 2.0\n",
			"# read requests: 50.0%\n",
			"0.0,4242,16,8,R\n",
			"2.0,4242,8,4,W\n",
		} {
			if !strings.Contains(text, want) {
				t.Fatalf("expected %q in trace:\n%s", want, text)
			}
		}
		if strings.Contains(text, ",I\n") || strings.Contains(text, "instruction fetch") {
			t.Fatalf("expected instruction fetches to be ignored:\n%s", text)
		}
	})
}

func TestParseUsesConfigDefaults(t *testing.T) {
	root := t.TempDir()
	calls := useFakeRunner(t, "histogram\n")
	mustWriteFile(t, filepath.Join(root, config.FileName), `drrun: tools/drrun
trace_path: recorded
parse:
  tool: cache_line_histogram
`)

	withWorkingDir(t, root, func() {
		captureStdout(t, func() {
			if err := RunParse(newParseCmdForTest(), nil); err != nil {
				t.Fatalf("RunParse failed: %v", err)
			}
		})
		want := "tools/drrun -t drcachesim -outdir . -indir recorded -simulator_type histogram"
		if got := strings.Join((*calls)[0], " "); got != want {
			t.Fatalf("unexpected command:\n got %q\nwant %q", got, want)
		}
	})
}

func TestParseIgnoreInstFlagOverridesConfig(t *testing.T) {
	root := t.TempDir()
	useFakeRunner(t, sampleView)
	mustWriteFile(t, filepath.Join(root, config.FileName), `parse:
  tool: memory_accesses
  ignore_inst: true
`)

	readTrace := func(cmd *cobra.Command) string {
		t.Helper()
		mustSetFlag(t, cmd, "output-path", t.TempDir())
		mustSetFlag(t, cmd, "json", "true")
		out := captureStdout(t, func() {
			if err := RunParse(cmd, nil); err != nil {
				t.Fatalf("RunParse failed: %v", err)
			}
		})
		var summary RunSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode summary: %v\n%s", err, out)
		}
		for _, output := range summary.Outputs {
			if strings.HasPrefix(output.Path, "doctorant_memory_trace_") {
				data, err := os.ReadFile(filepath.Join(summary.OutputDir, output.Path))
				if err != nil {
					t.Fatalf("failed to read trace: %v", err)
				}
				return string(data)
			}
		}
		t.Fatalf("no converted trace among outputs %+v", summary.Outputs)
		return ""
	}

	withWorkingDir(t, root, func() {
		fromConfig := readTrace(newParseCmdForTest())
		if strings.Contains(fromConfig, ",I\n") {
			t.Fatalf("expected config to drop instruction fetches:\n%s", fromConfig)
		}

		cmd := newParseCmdForTest()
		mustSetFlag(t, cmd, "ignore-inst", "false")
		overridden := readTrace(cmd)
		for _, want := range []string{"# instruction fetch requests: 33.33%\n", "0.0,4242,0,4,I\n"} {
			if !strings.Contains(overridden, want) {
				t.Fatalf("expected %q with --ignore-inst=false:\n%s", want, overridden)
			}
		}
	})
}

func TestParseRejectsBadOptions(t *testing.T) {
	root := t.TempDir()
	calls := useFakeRunner(t, "")

	withWorkingDir(t, root, func() {
		cmd := newParseCmdForTest()
		mustSetFlag(t, cmd, "tool", "cache_sim")
		if err := RunParse(cmd, nil); err == nil || !strings.Contains(err.Error(), "unknown parse tool") {
			t.Fatalf("expected unknown tool error, got %v", err)
		}

		cmd = newParseCmdForTest()
		mustSetFlag(t, cmd, "alignment", "0")
		if err := RunParse(cmd, nil); err == nil {
			t.Fatalf("expected alignment validation error")
		}
	})
	if len(*calls) != 0 {
		t.Fatalf("expected drrun not to run, got %v", *calls)
	}
}

func TestStatusReportsChangedOutputs(t *testing.T) {
	root := t.TempDir()
	useFakeRunner(t, "cache stats\n")

	withWorkingDir(t, root, func() {
		var printed string
		captureStdout(t, func() {
			if err := RunParse(newParseCmdForTest(), nil); err != nil {
				t.Fatalf("RunParse failed: %v", err)
			}
		})
		st, err := state.Load(".")
		if err != nil || len(st.Runs) != 1 {
			t.Fatalf("expected one recorded run: %v %+v", err, st)
		}
		outputPath := st.Runs[0].Outputs[0].Path
		mustWriteFile(t, outputPath, "edited\n")

		cmd := newStatusCmdForTest()
		mustSetFlag(t, cmd, "json", "true")
		printed = captureStdout(t, func() {
			if err := RunStatus(cmd, nil); err != nil {
				t.Fatalf("RunStatus failed: %v", err)
			}
		})

		var summary StatusSummary
		if err := json.Unmarshal([]byte(printed), &summary); err != nil {
			t.Fatalf("failed to decode status: %v\n%s", err, printed)
		}
		if summary.Clean || len(summary.Changed) != 1 || summary.Changed[0] != outputPath {
			t.Fatalf("expected %s to be reported as changed, got %+v", outputPath, summary)
		}
		if len(summary.Runs) != 1 || summary.Runs[0].Tool != drcachesim.ToolCacheSimulator {
			t.Fatalf("unexpected runs %+v", summary.Runs)
		}
	})
}

func TestStatusRecoversFromCorruptState(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, state.StateDir, state.StateFile), "{not json")

	withWorkingDir(t, root, func() {
		out := captureStdout(t, func() {
			if err := RunStatus(newStatusCmdForTest(), nil); err != nil {
				t.Fatalf("RunStatus failed: %v", err)
			}
		})
		if !strings.Contains(out, "status: runs=0") {
			t.Fatalf("expected empty status, got %q", out)
		}
	})
}

func TestNavExportAndValidateRoundTrip(t *testing.T) {
	root := t.TempDir()

	withWorkingDir(t, root, func() {
		exportCmd := newNavCmdForTest("export")
		mustSetFlag(t, exportCmd, "out", "page_design_docs.js")
		captureStdout(t, func() {
			if err := RunNavExport(exportCmd, nil); err != nil {
				t.Fatalf("RunNavExport failed: %v", err)
			}
		})

		data, err := os.ReadFile("page_design_docs.js")
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		want, err := navtree.EncodeJSString(navtree.DesignDocs())
		if err != nil {
			t.Fatalf("EncodeJSString failed: %v", err)
		}
		if string(data) != want {
			t.Fatalf("export differs from encoder output:\n%s", data)
		}

		second := captureStdout(t, func() {
			if err := RunNavExport(exportCmd, nil); err != nil {
				t.Fatalf("second RunNavExport failed: %v", err)
			}
		})
		if !strings.HasPrefix(second, "unchanged ") {
			t.Fatalf("expected unchanged export, got %q", second)
		}

		validateCmd := newNavCmdForTest("validate")
		mustSetFlag(t, validateCmd, "file", "page_design_docs.js")
		out := captureStdout(t, func() {
			if err := RunNavValidate(validateCmd, nil); err != nil {
				t.Fatalf("RunNavValidate failed: %v", err)
			}
		})
		if out != "page_design_docs: ok nodes=14 depth=5\n" {
			t.Fatalf("unexpected validate output %q", out)
		}
	})
}

func TestNavExportYAMLByExtension(t *testing.T) {
	root := t.TempDir()

	withWorkingDir(t, root, func() {
		cmd := newNavCmdForTest("export")
		mustSetFlag(t, cmd, "out", "tree.yaml")
		captureStdout(t, func() {
			if err := RunNavExport(cmd, nil); err != nil {
				t.Fatalf("RunNavExport failed: %v", err)
			}
		})

		showCmd := newNavCmdForTest("show")
		mustSetFlag(t, showCmd, "file", "tree.yaml")
		out := captureStdout(t, func() {
			if err := RunNavShow(showCmd, nil); err != nil {
				t.Fatalf("RunNavShow failed: %v", err)
			}
		})
		if !strings.HasPrefix(out, "page_design_docs\n") || !strings.Contains(out, "Load immed from TLS slot") {
			t.Fatalf("unexpected outline:\n%s", out)
		}
	})
}

func TestNavLogsLoadedTreeForEveryFormat(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zap.DebugLevel)
	original := logger
	logger = zap.New(core)
	t.Cleanup(func() {
		logger = original
	})

	withWorkingDir(t, root, func() {
		for _, file := range []string{"tree.js", "tree.json", "tree.yaml"} {
			exportCmd := newNavCmdForTest("export")
			mustSetFlag(t, exportCmd, "out", file)
			showCmd := newNavCmdForTest("show")
			mustSetFlag(t, showCmd, "file", file)
			captureStdout(t, func() {
				if err := RunNavExport(exportCmd, nil); err != nil {
					t.Fatalf("RunNavExport %s failed: %v", file, err)
				}
				if err := RunNavShow(showCmd, nil); err != nil {
					t.Fatalf("RunNavShow %s failed: %v", file, err)
				}
			})
		}
	})

	entries := logs.FilterMessage("loaded navigation tree").All()
	if len(entries) != 3 {
		t.Fatalf("expected one load log per format, got %d", len(entries))
	}
	for i, format := range []string{"js", "json", "yaml"} {
		fields := entries[i].ContextMap()
		if fields["format"] != format || fields["nodes"] != int64(14) {
			t.Fatalf("unexpected log fields for %s: %v", format, fields)
		}
	}
}

func TestNavValidateReportsViolations(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "bad.js"), `var bad =
[
    [ "", "page.html", null ],
    [ "Group", null, [] ]
];
`)

	withWorkingDir(t, root, func() {
		cmd := newNavCmdForTest("validate")
		mustSetFlag(t, cmd, "file", "bad.js")
		mustSetFlag(t, cmd, "json", "true")

		var runErr error
		out := captureStdout(t, func() {
			runErr = RunNavValidate(cmd, nil)
		})
		if runErr != errInvalidTree {
			t.Fatalf("expected errInvalidTree, got %v", runErr)
		}

		var result validationResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("failed to decode result: %v\n%s", err, out)
		}
		if result.Valid || len(result.Violations) == 0 {
			t.Fatalf("expected violations, got %+v", result)
		}
	})
}

func TestNavBuildFromMarkdown(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "arm.md"), `# ARM Port Design Document

## Pattern Mode

### Instrumentation to compare a memory value to an immediate
`)

	withWorkingDir(t, root, func() {
		cmd := newNavCmdForTest("build")
		mustSetFlag(t, cmd, "page", "page_arm_port.html")
		mustSetFlag(t, cmd, "title", "ARM Port")
		mustSetFlag(t, cmd, "var", "page_design_docs")
		mustSetFlag(t, cmd, "first-anchor", "102")

		out := captureStdout(t, func() {
			if err := RunNavBuild(cmd, []string{"arm.md"}); err != nil {
				t.Fatalf("RunNavBuild failed: %v", err)
			}
		})

		for _, want := range []string{
			"var page_design_docs =\n",
			`[ "ARM Port", "page_arm_port.html", [`,
			`[ "Pattern Mode", "page_arm_port.html#autotoc_md103", [`,
			`[ "Instrumentation to compare a memory value to an immediate", "page_arm_port.html#autotoc_md104", null ]`,
		} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in build output:\n%s", want, out)
			}
		}
	})
}

func TestNavCheckReportsBrokenLinks(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "html", "page_arm_port.html"), `<a id="autotoc_md102"></a>`)

	withWorkingDir(t, root, func() {
		cmd := newNavCmdForTest("check")
		mustSetFlag(t, cmd, "html-dir", "html")
		mustSetFlag(t, cmd, "json", "true")

		var runErr error
		out := captureStdout(t, func() {
			runErr = RunNavCheck(cmd, nil)
		})
		if runErr == nil || !strings.Contains(runErr.Error(), "12 broken link(s)") {
			t.Fatalf("expected 12 broken links, got %v", runErr)
		}

		var broken []navtree.BrokenLink
		if err := json.Unmarshal([]byte(out), &broken); err != nil {
			t.Fatalf("failed to decode broken links: %v\n%s", err, out)
		}
		if broken[0].Link != "page_arm_port.html#autotoc_md103" {
			t.Fatalf("expected first broken link md103, got %+v", broken[0])
		}
	})
}

func TestNavCheckRequiresHTMLDir(t *testing.T) {
	root := t.TempDir()
	withWorkingDir(t, root, func() {
		if err := RunNavCheck(newNavCmdForTest("check"), nil); err == nil {
			t.Fatalf("expected error without --html-dir")
		}
	})
}

func TestInitWritesConfigIdempotently(t *testing.T) {
	root := t.TempDir()

	withWorkingDir(t, root, func() {
		captureStdout(t, func() {
			if err := RunInit(newInitCmdForTest(), nil); err != nil {
				t.Fatalf("RunInit failed: %v", err)
			}
		})
		path := filepath.Join(root, config.FileName)
		assertExists(t, path)

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("written config is invalid: %v", err)
		}

		mustWriteFile(t, path, "drrun: custom\n")
		out := captureStdout(t, func() {
			if err := RunInit(newInitCmdForTest(), nil); err != nil {
				t.Fatalf("second RunInit failed: %v", err)
			}
		})
		if !strings.Contains(out, "already exists") {
			t.Fatalf("expected existing config to be kept, got %q", out)
		}
	})
}

func TestDoctorReportsMissingDrrun(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, config.FileName), "drrun: missing/bin64/drrun\n")

	withWorkingDir(t, root, func() {
		cmd := newDoctorCmdForTest()
		mustSetFlag(t, cmd, "json", "true")
		out := captureStdout(t, func() {
			if err := RunDoctor(cmd, nil); err != nil {
				t.Fatalf("RunDoctor failed: %v", err)
			}
		})

		var summary DoctorSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode doctor output: %v\n%s", err, out)
		}
		if summary.Healthy || summary.DrrunFound {
			t.Fatalf("expected unhealthy doctor result, got %+v", summary)
		}
		if summary.ConfigFile != config.FileName {
			t.Fatalf("expected config file to be detected, got %q", summary.ConfigFile)
		}
	})
}

func TestDoctorHealthyWithDrrun(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "dr", "drrun"), "#!/bin/sh\n")
	mustWriteFile(t, filepath.Join(root, config.FileName), "drrun: dr/drrun\n")

	withWorkingDir(t, root, func() {
		out := captureStdout(t, func() {
			if err := RunDoctor(newDoctorCmdForTest(), nil); err != nil {
				t.Fatalf("RunDoctor failed: %v", err)
			}
		})
		if !strings.HasPrefix(out, "doctor: ok\n") {
			t.Fatalf("expected healthy doctor output, got %q", out)
		}
	})
}

func TestRootCommandRunsNavValidate(t *testing.T) {
	root := t.TempDir()

	withWorkingDir(t, root, func() {
		cmd := NewRootCommand("test")
		cmd.SetArgs([]string{"nav", "validate"})
		out := captureStdout(t, func() {
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
		})
		if !strings.Contains(out, "page_design_docs: ok") {
			t.Fatalf("unexpected output %q", out)
		}
	})
}

func useFakeRunner(t *testing.T, output string) *[][]string {
	t.Helper()
	t.Setenv(config.EnvDrrun, "")
	t.Setenv(config.EnvOutput, "")

	calls := &[][]string{}
	original := newRunner
	newRunner = func(cfg config.Config) *drcachesim.Runner {
		r := drcachesim.NewRunner(cfg.Drrun, logger)
		r.Exec = func(_ context.Context, name string, args []string, out io.Writer) error {
			*calls = append(*calls, append([]string{name}, args...))
			_, err := io.WriteString(out, output)
			return err
		}
		return r
	}
	t.Cleanup(func() {
		newRunner = original
	})
	return calls
}

func newGenerateCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("app", "", "")
	addTraceFlags(cmd)
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newParseCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("tool", drcachesim.ToolCacheSimulator, "")
	addTraceFlags(cmd)
	cmd.Flags().Bool("ignore-inst", false, "")
	cmd.Flags().Int("hot-addresses", 10, "")
	cmd.Flags().Int("alignment", 16, "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newStatusCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("output-path", "", "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newInitCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("force", false, "")
	return cmd
}

func newDoctorCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newNavCmdForTest(name string) *cobra.Command {
	for _, cmd := range newNavCommand().Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	panic("no nav command " + name)
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func mustSetFlag(t *testing.T, cmd *cobra.Command, key, value string) {
	t.Helper()
	if err := cmd.Flags().Set(key, value); err != nil {
		t.Fatalf("failed to set --%s=%s: %v", key, value, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = writer.Close()
		_ = reader.Close()
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read captured stdout: %v", err)
	}
	return string(data)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
