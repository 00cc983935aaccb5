package main

import (
	"flag"
	"fmt"
	"os"

	"bantay-pod/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	if err := appbootstrap.Run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "bantay-pod: %v\n", err)
		os.Exit(1)
	}
}
