package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"gitgub.com/cam-per/gifdec/gif"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print stream metadata and frame timing",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "frames", Aliases: []string{"f"}, Usage: "print the per-frame table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing FILE argument")
			}

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			source, err := gif.OpenFile(path)
			if err != nil {
				return err
			}
			decoder, err := gif.NewDecoder(source, gif.DefaultCacheInterval)
			if err != nil {
				source.Close()
				return err
			}
			defer decoder.Close()

			fmt.Printf("file:       %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
			fmt.Printf("version:    %s\n", decoder.Version())
			fmt.Printf("screen:     %dx%d\n", decoder.Width(), decoder.Height())
			fmt.Printf("frames:     %d\n", decoder.FrameCount())
			fmt.Printf("duration:   %v\n", decoder.Duration())
			fmt.Printf("loop:       %s\n", loopString(decoder.LoopCount()))
			fmt.Printf("background: index %d\n", decoder.BackgroundIndex())
			if table := decoder.GlobalColorTable(); table != nil {
				fmt.Printf("palette:    %d colors (global)\n", len(table))
			}
			for _, comment := range decoder.Comments() {
				fmt.Printf("comment:    %s\n", comment)
			}

			if cmd.Bool("frames") {
				fmt.Println()
				fmt.Println("frame  delay      timestamp")
				for i, frame := range decoder.FrameInfos() {
					fmt.Printf("%5d  %-9v  %v\n", i, frame.Duration, frame.Timestamp)
				}
			}
			return nil
		},
	}
}

func loopString(count int) string {
	switch {
	case count < 0:
		return "none (play once)"
	case count == 0:
		return "infinite"
	default:
		return fmt.Sprintf("%d", count)
	}
}
