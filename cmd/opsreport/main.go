package main

import (
	"fmt"
	"os"

	"github.com/pankaj-dahiya-devops/opsreport/internal/config"
)

func main() {
	cfg, err := config.NewDefaultLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := newRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
