package main

import (
	_ "github.com/phase1912/BigFileSorterGenerator/cmd/generate"
	"github.com/phase1912/BigFileSorterGenerator/cmd/root"
	_ "github.com/phase1912/BigFileSorterGenerator/cmd/sort"
)

func main() {
	root.Execute()
}
