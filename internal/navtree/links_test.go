package navtree

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestLinkCheckerFindsMissingAnchorsAndPages(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var page strings.Builder
	page.WriteString("<html><body>\n")
	for n := 102; n <= 114; n++ {
		if n == 110 {
			continue
		}
		page.WriteString(`<h2><a class="anchor" id="autotoc_md` + strconv.Itoa(n) + `"></a>Heading</h2>` + "\n")
	}
	page.WriteString(`<a name="legacy"></a></body></html>`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_arm_port.html"), []byte(page.String()), 0644))

	nodes := DesignDocs().Nodes
	nodes[0].Children = append(nodes[0].Children,
		&Node{Title: "Legacy", Link: "page_arm_port.html#legacy"},
		&Node{Title: "Elsewhere", Link: "page_missing.html#top"},
		&Node{Title: "External", Link: "https://drmemory.org/page_arm_port.html#nowhere"},
	)

	checker := &LinkChecker{Dir: dir, Concurrency: 2, Logger: zaptest.NewLogger(t)}
	broken, err := checker.Check(context.Background(), nodes)
	require.NoError(t, err)

	require.Len(t, broken, 2)
	assert.Equal(t, "page_arm_port.html#autotoc_md110", broken[0].Link)
	assert.Equal(t, "anchor not found", broken[0].Reason)
	assert.True(t, strings.HasSuffix(broken[0].Path, "Load immed from TLS slot"))
	assert.Equal(t, "page_missing.html#top", broken[1].Link)
	assert.Equal(t, "page not found", broken[1].Reason)
}

func TestLinkCheckerReportsLinksWithoutLocalPage(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	dir := filepath.Join(root, "html")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.html"), []byte(`<p id="x"></p>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "outside.html"), []byte(`<p id="top"></p>`), 0644))

	broken, err := CheckLinks(context.Background(), []*Node{
		{Title: "A", Link: "a.html#x"},
		{Title: "Local", Link: "#local"},
		{Title: "Escape", Link: "../outside.html#top"},
		{Title: "Missing", Link: "a.html#y"},
	}, dir)
	require.NoError(t, err)

	require.Len(t, broken, 3)
	assert.Equal(t, BrokenLink{Path: "Local", Link: "#local", Reason: "link has no page"}, broken[0])
	assert.Equal(t, BrokenLink{Path: "Escape", Link: "../outside.html#top", Reason: "page outside html directory"}, broken[1])
	assert.Equal(t, "a.html#y", broken[2].Link)
	assert.Equal(t, "anchor not found", broken[2].Reason)
}

func TestLinkCheckerCleanTree(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<div id="main"></div>`), 0644))

	broken, err := CheckLinks(context.Background(), []*Node{
		{Title: "Home", Link: "index.html", Children: []*Node{{Title: "Main", Link: "index.html#main"}}},
		{Title: "Group"},
	}, dir)
	require.NoError(t, err)
	assert.Empty(t, broken)
}
