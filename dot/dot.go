// Package dot renders ring snapshots in Graphviz dot language.
//
// Every node is drawn as a filled ellipse followed by a chain of boxes, one
// per key it owns. The last key of a node points to the next node, and the
// chain of the last node closes back to the first one:
//
//	node0 -> key0 -> key1 -> node1 -> key2 -> node0
//
// Graphs are best laid out with circo:
//
//	circo -Tpng -o ring.png ring.dot
package dot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gobwas/chash"
)

// Write writes a digraph with given name describing snap to w.
func Write(w io.Writer, name string, snap []chash.NodeSnapshot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph %s {\n", id(name))

	var (
		prev string
		kid  int
	)
	for hid, n := range snap {
		cur := fmt.Sprintf("hash%d", hid)
		if prev != "" {
			fmt.Fprintf(bw, "%s -> %s;\n", prev, cur)
		}
		fmt.Fprintf(bw,
			"%s [ label=%s style=filled fillcolor=\"yellow\" ];\n",
			cur, quote(n.Name+"\n"+n.Label()),
		)
		prev = cur
		for _, k := range n.Keys {
			key := fmt.Sprintf("key%d", kid)
			fmt.Fprintf(bw,
				"  %s [ label=%s shape=box ];\n",
				key, quote(fmt.Sprintf("[%s] = %v\n%s", k.Key, k.Value, k.Label())),
			)
			fmt.Fprintf(bw, "%s -> %s;\n", prev, key)
			prev = key
			kid++
		}
	}
	if len(snap) > 0 {
		fmt.Fprintf(bw, "%s -> hash0;\n", prev)
	}
	bw.WriteString("}\n")

	return bw.Flush()
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// id returns s if it is a valid dot identifier, or quoted s otherwise.
func id(s string) string {
	if s == "" {
		return quote(s)
	}
	for i, c := range s {
		switch {
		case c == '_':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return quote(s)
		}
	}
	return s
}
