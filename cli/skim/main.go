package main

import (
	"os"

	skimcmder "github.com/papercomputeco/skim/cmd/skim"
)

func main() {
	cmd := skimcmder.NewSkimCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
