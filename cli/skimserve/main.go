package main

import (
	"os"

	servecmder "github.com/papercomputeco/skim/cmd/skim/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "skimserve"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .skim/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
