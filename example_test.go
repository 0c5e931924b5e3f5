package gradblend_test

import (
	"fmt"

	"github.com/setanarut/gradblend"
	"github.com/setanarut/gradblend/utils"
)

func Example() {
	bg, _ := gradblend.FromImage(utils.Synthetic(utils.PatternGradient, 64, 64), gradblend.RGB())
	fg, _ := gradblend.FromImage(utils.Synthetic(utils.PatternChecker, 32, 32), gradblend.RGB())

	if err := gradblend.MergeInto(bg, fg, 16, 16, 1.0); err != nil {
		fmt.Println(err)
		return
	}

	p := gradblend.NewParallel(0)
	defer p.Close()
	if err := gradblend.NewSolver(p).Reconstruct(bg, 200); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(bg.Image().Bounds())
	// Output: (0,0)-(64,64)
}
