package splitdetect

import (
	"fmt"
	"io"

	"github.com/awalterschulze/gographviz"

	"github.com/mudesheng/tiledaligner/tilematch"
)

// WriteDot writes the hypotheses of one query as an undirected graph: one
// node per run, one edge per two-run hypothesis labelled with its coverage.
func WriteDot(w io.Writer, name string, m map[int][]tilematch.Set) error {
	g := gographviz.NewGraph()
	graphName := fmt.Sprintf("%q", name)
	if err := g.SetName(graphName); err != nil {
		return err
	}
	if err := g.SetDir(false); err != nil {
		return err
	}
	nodes := make(map[tilematch.TileMatch]string)
	node := func(tm tilematch.TileMatch) (string, error) {
		if id, ok := nodes[tm]; ok {
			return id, nil
		}
		id := fmt.Sprintf("n%d", len(nodes))
		attrs := map[string]string{"label": fmt.Sprintf("%q", tm.String())}
		if err := g.AddNode(graphName, id, attrs); err != nil {
			return "", err
		}
		nodes[tm] = id
		return id, nil
	}
	for _, k := range Keys(m) {
		for _, s := range m[k] {
			if s.Len() < 2 {
				continue
			}
			for i := 1; i < s.Len(); i++ {
				src, err := node(s.At(i - 1))
				if err != nil {
					return err
				}
				dst, err := node(s.At(i))
				if err != nil {
					return err
				}
				if err := g.AddEdge(src, dst, false, map[string]string{"label": fmt.Sprintf("%d", k)}); err != nil {
					return err
				}
			}
		}
	}
	_, err := io.WriteString(w, g.String())
	return err
}
