package main

import (
	"fmt"
	"os"

	"fsgate/internal/cli"
	"fsgate/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		rootOverride := ""
		if len(os.Args) > 2 {
			rootOverride = os.Args[2]
		}
		if err := server.Run(rootOverride); err != nil {
			fmt.Fprintf(os.Stderr, "fsgate serve: %v\n", err)
			os.Exit(1)
		}
		return
	}

	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
