package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dbiton/DoctorantMemory/internal/config"
	"github.com/dbiton/DoctorantMemory/internal/fileutil"
	"github.com/dbiton/DoctorantMemory/internal/navtree"
	"github.com/dbiton/DoctorantMemory/internal/server"
)

// loadTree returns the tree named by --file/--var (falling back to the
// config's nav section), or the built-in design docs tree.
func loadTree(cmd *cobra.Command, cfg config.Config) (*navtree.Tree, error) {
	file, err := stringOverride(cmd, "file", cfg.Nav.File)
	if err != nil {
		return nil, err
	}
	name, err := stringOverride(cmd, "var", cfg.Nav.Var)
	if err != nil {
		return nil, err
	}
	if file == "" {
		tree := navtree.DesignDocs()
		if name != "" && name != tree.Name {
			return nil, fmt.Errorf("built-in tree is %q, not %q", tree.Name, name)
		}
		return tree, nil
	}

	tree, err := loadTreeFile(commandContext(cmd), file, name)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded navigation tree",
		zap.String("file", file),
		zap.String("format", string(navtree.FormatForPath(file))),
		zap.String("var", tree.Name),
		zap.Int("nodes", navtree.Count(tree.Nodes)))
	return tree, nil
}

func loadTreeFile(ctx context.Context, file, name string) (*navtree.Tree, error) {
	if navtree.FormatForPath(file) != navtree.FormatJS {
		return navtree.Load(ctx, file, name)
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read navigation tree: %w", err)
	}
	decoded, err := navtree.DecodeJS(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	ReportNavIssues(decoded.Issues)

	var tree *navtree.Tree
	var ok bool
	if name == "" {
		tree, ok = decoded.First()
	} else {
		tree, ok = decoded.Tree(name)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", file, navtree.ErrNotNavTree)
	}
	return tree, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func RunNavShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := loadTree(cmd, cfg)
	if err != nil {
		return err
	}
	showLinks, err := OptionalBoolFlag(cmd, "links", false)
	if err != nil {
		return err
	}
	return navtree.Render(os.Stdout, tree, navtree.RenderOptions{ShowLinks: showLinks})
}

func RunNavExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := loadTree(cmd, cfg)
	if err != nil {
		return err
	}
	return writeTree(cmd, tree)
}

// writeTree encodes tree per --format and writes it to --out or stdout.
func writeTree(cmd *cobra.Command, tree *navtree.Tree) error {
	out, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return err
	}
	format, err := ParseNavFormat(cmd)
	if err != nil {
		return err
	}
	if flag := cmd.Flag("format"); out != "" && (flag == nil || !flag.Changed) {
		format = navtree.FormatForPath(out)
	}

	var buf bytes.Buffer
	if err := navtree.Encode(&buf, tree, format); err != nil {
		return err
	}
	if out == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	changed, err := fileutil.WriteIfChangedTracked(out, buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if changed {
		fmt.Printf("wrote %s (%s)\n", out, format)
	} else {
		fmt.Printf("unchanged %s\n", out)
	}
	return nil
}

type validationResult struct {
	Name       string   `json:"name"`
	Nodes      int      `json:"nodes"`
	Depth      int      `json:"depth"`
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// errInvalidTree is returned after violations have been printed.
var errInvalidTree = errors.New("navigation tree is invalid")

func RunNavValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := loadTree(cmd, cfg)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	result := validationResult{
		Name:  tree.Name,
		Nodes: navtree.Count(tree.Nodes),
		Depth: navtree.Depth(tree.Nodes),
	}
	validateErr := navtree.Validate(tree)
	result.Valid = validateErr == nil
	result.Violations = violationMessages(validateErr)

	if asJSON {
		if err := fileutil.PrintJSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Printf("%s: ok nodes=%d depth=%d\n", result.Name, result.Nodes, result.Depth)
	} else {
		fmt.Printf("%s: %d violation(s)\n", result.Name, len(result.Violations))
		for _, violation := range result.Violations {
			fmt.Printf("  %s\n", violation)
		}
	}
	if !result.Valid {
		return errInvalidTree
	}
	return nil
}

func violationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		messages := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			messages = append(messages, e.Error())
		}
		return messages
	}
	return []string{err.Error()}
}

func RunNavBuild(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read markdown: %w", err)
	}

	opts := navtree.MarkdownOptions{}
	if opts.Page, err = OptionalStringFlag(cmd, "page"); err != nil {
		return err
	}
	if opts.Title, err = OptionalStringFlag(cmd, "title"); err != nil {
		return err
	}
	if opts.VarName, err = OptionalStringFlag(cmd, "var"); err != nil {
		return err
	}
	if opts.FirstAnchor, err = OptionalIntFlag(cmd, "first-anchor", 1); err != nil {
		return err
	}
	if opts.MaxLevel, err = OptionalIntFlag(cmd, "max-level", 0); err != nil {
		return err
	}

	tree, err := navtree.FromMarkdown(src, opts)
	if err != nil {
		return err
	}
	if err := navtree.Validate(tree); err != nil {
		return err
	}
	return writeTree(cmd, tree)
}

func RunNavCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := loadTree(cmd, cfg)
	if err != nil {
		return err
	}
	htmlDir, err := stringOverride(cmd, "html-dir", cfg.Nav.HTMLDir)
	if err != nil {
		return err
	}
	if htmlDir == "" {
		return fmt.Errorf("nav check requires --html-dir or nav.html_dir in %s", config.FileName)
	}
	concurrency, err := OptionalIntFlag(cmd, "concurrency", 4)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	checker := &navtree.LinkChecker{Dir: htmlDir, Concurrency: concurrency, Logger: logger}
	broken, err := checker.Check(commandContext(cmd), tree.Nodes)
	if err != nil {
		return err
	}

	if asJSON {
		if broken == nil {
			broken = []navtree.BrokenLink{}
		}
		if err := fileutil.PrintJSON(broken); err != nil {
			return err
		}
	} else {
		fmt.Printf("check: links=%d broken=%d\n", countLinks(tree.Nodes), len(broken))
		for _, link := range broken {
			fmt.Printf("  %s -> %s (%s)\n", link.Path, link.Link, link.Reason)
		}
	}
	if len(broken) > 0 {
		return fmt.Errorf("%d broken link(s)", len(broken))
	}
	return nil
}

func countLinks(nodes []*navtree.Node) int {
	links := 0
	navtree.Walk(nodes, func(v navtree.Visit) bool {
		if v.Node.Link != "" {
			links++
		}
		return true
	})
	return links
}

func RunNavServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := loadTree(cmd, cfg)
	if err != nil {
		return err
	}
	addr, err := stringOverride(cmd, "addr", cfg.Nav.Addr)
	if err != nil {
		return err
	}

	watch, err := OptionalBoolFlag(cmd, "watch", false)
	if err != nil {
		return err
	}
	file, err := stringOverride(cmd, "file", cfg.Nav.File)
	if err != nil {
		return err
	}
	if watch && file == "" {
		return fmt.Errorf("nav serve --watch requires --file or nav.file in %s", config.FileName)
	}

	srv, err := server.New(tree, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(ctx, addr, srv, logger, func(bound net.Addr) {
			fmt.Printf("serving %s on http://%s\n", tree.Name, bound)
		})
	})
	if watch {
		g.Go(func() error {
			return srv.Watch(ctx, file, func() (*navtree.Tree, error) {
				return loadTree(cmd, cfg)
			})
		})
	}
	return g.Wait()
}
