package drcachesim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTool is returned for a tool name that is not registered.
var ErrUnknownTool = errors.New("unknown parse tool")

// Tool is a named way of replaying a recorded trace.
type Tool struct {
	Name        string
	Description string
	// Args are appended to the drcachesim command line after -indir.
	Args []string
	// Converts marks tools whose raw output is post-processed into the
	// access CSV instead of being returned as is.
	Converts bool
}

const (
	ToolCacheSimulator     = "cache_simulator"
	ToolViewAccesses       = "memory_accesses_drcachesim"
	ToolCacheLineHistogram = "cache_line_histogram"
	ToolMemoryAccesses     = "memory_accesses"
)

var viewArgs = []string{"-simulator_type", "view"}

var tools = map[string]Tool{
	ToolCacheSimulator: {
		Name:        ToolCacheSimulator,
		Description: "drcachesim's default cache simulator",
	},
	ToolViewAccesses: {
		Name:        ToolViewAccesses,
		Description: "raw drcachesim view of every record",
		Args:        viewArgs,
	},
	ToolCacheLineHistogram: {
		Name:        ToolCacheLineHistogram,
		Description: "per cache line access histogram",
		Args:        []string{"-simulator_type", "histogram"},
	},
	ToolMemoryAccesses: {
		Name:        ToolMemoryAccesses,
		Description: "access CSV with statistics and hot addresses",
		Args:        viewArgs,
		Converts:    true,
	},
}

// LookupTool returns the tool registered under name.
func LookupTool(name string) (Tool, error) {
	tool, ok := tools[strings.TrimSpace(name)]
	if !ok {
		return Tool{}, fmt.Errorf("%w %q (supported: %s)", ErrUnknownTool, name, strings.Join(ToolNames(), ", "))
	}
	return tool, nil
}

// ToolNames returns the registered tool names in sorted order.
func ToolNames() []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
