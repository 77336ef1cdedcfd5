package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "gifdec",
		Usage: "inspect, extract and play GIF animations",
		Commands: []*cli.Command{
			infoCommand(),
			extractCommand(),
			dumpCommand(),
			viewCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
