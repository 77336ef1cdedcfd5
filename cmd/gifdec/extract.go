package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"gitgub.com/cam-per/gifdec/gif"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "write composed frames as PNG files",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "output directory"},
			&cli.IntFlag{Name: "frame", Value: -1, Usage: "extract a single frame index"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing FILE argument")
			}
			outDir := cmd.String("out")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
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

			if index := int(cmd.Int("frame")); index >= 0 {
				frame, err := decoder.ReadFrame(index)
				if err != nil {
					return err
				}
				return writeFrame(outDir, frame)
			}

			for frame, err := range decoder.Frames() {
				if err != nil {
					return err
				}
				if err := writeFrame(outDir, frame); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func writeFrame(dir string, frame *gif.ImageFrame) error {
	name := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", frame.Index))
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, frame.Image())
}
