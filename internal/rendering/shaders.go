package rendering

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

//go:embed all:shaders
var __shaders__ embed.FS

type shader struct {
	Handle     uint32
	Type       uint32
	SourceCode string
}

var (
	shadersSources  map[string][]*shader
	shadersPrograms map[string]uint32
)

// LoadShaders collects the embedded GLSL sources. Each directory under
// shaders/ is one program; files are named <seq>.<type>.glsl.
func LoadShaders() error {
	shadersSources = make(map[string][]*shader)
	return fs.WalkDir(__shaders__, "shaders", func(name string, entry fs.DirEntry, err error) error {
		return loadShaderDirectory(__shaders__, name, entry, err)
	})
}

// CompileShaders builds and links every loaded program, then releases the
// intermediate shader objects.
func CompileShaders() error {
	if err := buildShaders(); err != nil {
		return err
	}
	if err := linkShaders(); err != nil {
		return err
	}

	for _, sources := range shadersSources {
		for _, shader := range sources {
			gl.DeleteShader(shader.Handle)
			shader.Handle = 0
		}
	}

	shadersSources = nil
	return nil
}

func UseProgram(program string) {
	if shadersPrograms == nil {
		return
	}
	if _, ok := shadersPrograms[program]; !ok {
		return
	}
	gl.UseProgram(shadersPrograms[program])
}

// Program returns the GL handle of a linked program.
func Program(name string) (uint32, bool) {
	handle, ok := shadersPrograms[name]
	return handle, ok
}

func loadShaderDirectory(fsys fs.FS, dir string, entry fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	if !entry.IsDir() || dir == "shaders" {
		return nil
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	tempShaders := make(map[int]*shader)
	maxSeq := -1
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".glsl" {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return err
		}

		p := strings.Split(name, ".")
		if len(p) != 3 {
			return fmt.Errorf("invalid shader file name: %s", name)
		}

		var shaderType int
		switch p[1] {
		case "vertex":
			shaderType = gl.VERTEX_SHADER
		case "fragment":
			shaderType = gl.FRAGMENT_SHADER
		case "geometry":
			shaderType = gl.GEOMETRY_SHADER
		default:
			return fmt.Errorf("unknown shader type: %s", p[1])
		}

		seq, err := strconv.Atoi(p[0])
		if err != nil {
			return fmt.Errorf("invalid shader sequence number: %s", p[0])
		}
		if seq < 0 {
			return fmt.Errorf("shader sequence number must be non-negative: %d", seq)
		}

		tempShaders[seq] = &shader{
			Type:       uint32(shaderType),
			SourceCode: string(data),
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	if maxSeq == -1 {
		return fmt.Errorf("no shaders found in directory: %s", dir)
	}

	finalShaders := make([]*shader, maxSeq+1)
	for i := 0; i <= maxSeq; i++ {
		shader, ok := tempShaders[i]
		if !ok {
			return fmt.Errorf("missing shader with sequence number: %d in directory: %s", i, dir)
		}
		finalShaders[i] = shader
	}

	shadersSources[strings.TrimPrefix(dir, "shaders/")] = finalShaders
	return nil
}

func buildShaders() error {
	for name, sources := range shadersSources {
		for _, shader := range sources {
			shader.Handle = gl.CreateShader(shader.Type)
			if shader.Handle == 0 {
				return fmt.Errorf("failed to create shader handle for %s", name)
			}

			csources, free := gl.Strs(shader.SourceCode + "\x00")
			gl.ShaderSource(shader.Handle, 1, csources, nil)
			free()
			gl.CompileShader(shader.Handle)

			var status int32
			gl.GetShaderiv(shader.Handle, gl.COMPILE_STATUS, &status)
			if status == gl.FALSE {
				log := shaderLog(shader.Handle, false)
				gl.DeleteShader(shader.Handle)
				return fmt.Errorf("failed to compile shader %s:\n%s", name, log)
			}
		}
	}
	return nil
}

func linkShaders() error {
	shadersPrograms = make(map[string]uint32)
	for name, sources := range shadersSources {
		program := gl.CreateProgram()
		for _, shader := range sources {
			gl.AttachShader(program, shader.Handle)
		}
		gl.LinkProgram(program)

		var status int32
		gl.GetProgramiv(program, gl.LINK_STATUS, &status)
		if status == gl.FALSE {
			log := shaderLog(program, true)
			gl.DeleteProgram(program)
			return fmt.Errorf("failed to link program %s:\n%s", name, log)
		}
		shadersPrograms[name] = program
	}
	return nil
}

func shaderLog(handle uint32, program bool) string {
	var logLength int32
	if program {
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
	} else {
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
	}
	if logLength == 0 {
		return ""
	}

	logBuffer := make([]byte, logLength)
	logPtr := (*uint8)(gl.Ptr(&logBuffer[0]))
	if program {
		gl.GetProgramInfoLog(handle, logLength, nil, logPtr)
	} else {
		gl.GetShaderInfoLog(handle, logLength, nil, logPtr)
	}
	return gl.GoStr(logPtr)
}
