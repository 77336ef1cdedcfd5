package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"gitgub.com/cam-per/gifdec/utils"
)

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "hex dump a byte range of the file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "offset", Value: 0, Usage: "start offset"},
			&cli.IntFlag{Name: "length", Value: 256, Usage: "bytes to dump"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing FILE argument")
			}
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			return utils.HexDump(os.Stdout, file, int64(cmd.Int("offset")), int64(cmd.Int("length")))
		},
	}
}
