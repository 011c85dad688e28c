package navtree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// BrokenLink is a navigation link that does not resolve inside the
// generated HTML.
type BrokenLink struct {
	Path   string `json:"path"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// LinkChecker resolves navigation links against a directory of generated
// HTML pages.
type LinkChecker struct {
	Dir         string
	Concurrency int
	Logger      *zap.Logger
}

// CheckLinks checks nodes against the HTML pages in htmlDir with the
// default concurrency.
func CheckLinks(ctx context.Context, nodes []*Node, htmlDir string) ([]BrokenLink, error) {
	return (&LinkChecker{Dir: htmlDir}).Check(ctx, nodes)
}

type linkRef struct {
	path     string
	link     string
	fragment string
}

// Check returns every link in nodes whose page is missing from Dir or whose
// fragment names no element id or anchor name on that page. Links without a
// page part, or whose page would resolve outside Dir, are reported without
// touching the filesystem. Links with a URL scheme are skipped. Results are
// ordered by document position.
func (c *LinkChecker) Check(ctx context.Context, nodes []*Node) ([]BrokenLink, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		mu     sync.Mutex
		broken []BrokenLink
	)
	byPage := make(map[string][]linkRef)
	order := make(map[string]int)
	Walk(nodes, func(v Visit) bool {
		link := v.Node.Link
		if link == "" || strings.Contains(link, "://") || strings.HasPrefix(link, "mailto:") {
			return true
		}
		page, fragment, _ := strings.Cut(link, "#")
		ref := linkRef{path: v.PathString(), link: link, fragment: fragment}
		if _, ok := order[ref.path+"\x00"+link]; !ok {
			order[ref.path+"\x00"+link] = len(order)
		}
		switch {
		case page == "":
			broken = append(broken, BrokenLink{Path: ref.path, Link: link, Reason: "link has no page"})
		case !filepath.IsLocal(filepath.FromSlash(page)):
			broken = append(broken, BrokenLink{Path: ref.path, Link: link, Reason: "page outside html directory"})
		default:
			byPage[page] = append(byPage[page], ref)
		}
		return true
	})

	g, ctx := errgroup.WithContext(ctx)
	limit := c.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for page, refs := range byPage {
		page, refs := page, refs
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pagePath := filepath.Join(c.Dir, filepath.FromSlash(page))
			anchors, err := pageAnchors(pagePath)
			var pageBroken []BrokenLink
			switch {
			case errors.Is(err, os.ErrNotExist):
				for _, ref := range refs {
					pageBroken = append(pageBroken, BrokenLink{Path: ref.path, Link: ref.link, Reason: "page not found"})
				}
			case err != nil:
				return fmt.Errorf("scan %s: %w", page, err)
			default:
				for _, ref := range refs {
					if ref.fragment != "" && !anchors[ref.fragment] {
						pageBroken = append(pageBroken, BrokenLink{Path: ref.path, Link: ref.link, Reason: "anchor not found"})
					}
				}
			}
			logger.Debug("checked page",
				zap.String("page", page),
				zap.Int("links", len(refs)),
				zap.Int("broken", len(pageBroken)))

			mu.Lock()
			broken = append(broken, pageBroken...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(broken, func(i, j int) bool {
		return order[broken[i].Path+"\x00"+broken[i].Link] < order[broken[j].Path+"\x00"+broken[j].Link]
	})
	return broken, nil
}

func pageAnchors(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return collectAnchors(f)
}

// collectAnchors returns every id attribute and every <a name> in the page.
func collectAnchors(r io.Reader) (map[string]bool, error) {
	anchors := make(map[string]bool)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return anchors, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch string(key) {
				case "id":
					anchors[string(val)] = true
				case "name":
					if string(name) == "a" {
						anchors[string(val)] = true
					}
				}
			}
		}
	}
}
