package grid_test

import (
	"fmt"

	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

func ExampleAssemble() {
	rels := []tree.Relationship{
		{ID: "r", Parents: [2]tree.PersonID{"A", "B"}, Children: []tree.PersonID{"C", "D"}},
	}
	g, err := grid.Assemble(rels, layers.Layers{{"A", "B"}, {"C", "D"}})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(g)
	// Output:
	// sibling| [] []
	// person | Person(A) Person(B)
	// parent | [ending(right)#0] [ending(left)#0]
	// sibling| [ending(right)#0] [ending(left)#0]
	// person | Person(C) Person(D)
	// parent | [] []
}

func ExampleClassify() {
	row := grid.Classify(4, grid.Up, []grid.Range{
		{Connection: 0, Columns: []int{0, 2}},
		{Connection: 1, Columns: []int{1, 3}},
	})
	for col, c := range row {
		fmt.Println(col, c)
	}
	// Output:
	// 0 [ending(right)#0]
	// 1 [passing(none)#0 crossing(right)#1x[0]]
	// 2 [ending(left)#0 crossing(none)#1x[0]]
	// 3 [ending(left)#1]
}
