package navtree

// DesignDocsVar is the variable name Doxygen assigns the design document
// outline to in page_design_docs.js.
const DesignDocsVar = "page_design_docs"

const armPortPage = "page_arm_port.html"

// DesignDocs returns the DrMemory ARM port design document outline. Every
// call returns a fresh copy, so callers may modify the result.
func DesignDocs() *Tree {
	return &Tree{
		Name: DesignDocsVar,
		Nodes: []*Node{
			{Title: "ARM Port", Link: armPortPage, Children: []*Node{
				{Title: "ARM Port Design Document", Link: armPortPage + "#autotoc_md102", Children: []*Node{
					{Title: "Pattern Mode", Link: armPortPage + "#autotoc_md103", Children: []*Node{
						{Title: "Instrumentation to compare a memory value to an immediate", Link: armPortPage + "#autotoc_md104", Children: []*Node{
							{Title: "Thumb mode: can repeat single byte", Link: armPortPage + "#autotoc_md105"},
							{Title: "To avoid spilling flags, try sub+cbnz in thumb mode", Link: armPortPage + "#autotoc_md106"},
							{Title: "ARM mode: cannot repeat an immmed byte!  Use OP_sub x4?", Link: armPortPage + "#autotoc_md107"},
							{Title: "Do 4 subtracts?", Link: armPortPage + "#autotoc_md108"},
							{Title: "Switch to thumb mode just for the cmp?", Link: armPortPage + "#autotoc_md109"},
							{Title: "Load immed from TLS slot", Link: armPortPage + "#autotoc_md110"},
							{Title: "Go w/ unified ARM+Thumb same approach for simpler code?", Link: armPortPage + "#autotoc_md111"},
							{Title: "Permanently steal another reg?", Link: armPortPage + "#autotoc_md112"},
							{Title: "Put the optimizations under an option and under option switch to single-byte pattern val", Link: armPortPage + "#autotoc_md113"},
							{Title: "For 2 spills, have drreg use ldm or ldrd?", Link: armPortPage + "#autotoc_md114"},
						}},
					}},
				}},
			}},
		},
	}
}
