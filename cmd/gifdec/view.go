package main

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli/v3"

	"gitgub.com/cam-per/gifdec/gif"
	"gitgub.com/cam-per/gifdec/internal/rendering"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "play the animation in a window",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "scale", Value: 1, Usage: "integer window scale factor"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing FILE argument")
			}
			scale := int(cmd.Int("scale"))
			if scale < 1 {
				scale = 1
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

			var frames []*gif.ImageFrame
			for frame, err := range decoder.Frames() {
				if err != nil {
					return err
				}
				frames = append(frames, frame)
			}
			if len(frames) == 0 {
				return gif.ErrEmpty
			}

			return play(path, decoder, frames, scale)
		},
	}
}

func play(title string, decoder *gif.Decoder, frames []*gif.ImageFrame, scale int) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(decoder.Width()*scale, decoder.Height()*scale, title, nil, nil)
	if err != nil {
		return err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		return err
	}
	if err := rendering.LoadShaders(); err != nil {
		return err
	}
	if err := rendering.CompileShaders(); err != nil {
		return err
	}

	rendering.UseProgram("frame")
	if program, ok := rendering.Program("frame"); ok {
		location := gl.GetUniformLocation(program, gl.Str("frameTexture\x00"))
		gl.Uniform1i(location, 0)
	}

	plane := rendering.NewFramePlane(decoder.Width(), decoder.Height())
	defer plane.Release()

	start := time.Now()
	current := -1
	for !window.ShouldClose() {
		index := frameAt(decoder, frames, time.Since(start))
		if index != current {
			plane.Upload(frames[index].Image().Pix)
			current = index
		}

		gl.ClearColor(0, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		plane.Draw()

		window.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

// frameAt maps elapsed wall time onto a frame index, honoring the stream's
// loop count: 0 loops forever, absent plays once, N plays N times, then the
// last frame holds.
func frameAt(decoder *gif.Decoder, frames []*gif.ImageFrame, elapsed time.Duration) int {
	total := decoder.Duration()
	if total <= 0 {
		return 0
	}

	plays := int64(1)
	switch count := decoder.LoopCount(); {
	case count == 0:
		plays = -1
	case count > 0:
		plays = int64(count)
	}
	if plays > 0 && elapsed >= total*time.Duration(plays) {
		return len(frames) - 1
	}

	at := elapsed % total
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Timestamp <= at {
			return i
		}
	}
	return 0
}
