package rendering

import (
	"github.com/go-gl/gl/v3.3-core/gl"
)

// FramePlane is a fullscreen textured quad that animation frames are
// uploaded onto.
type FramePlane struct {
	vao     uint32
	vbo     uint32
	texture uint32
	width   int
	height  int
}

// x, y, u, v per vertex; two triangles covering clip space. Texture
// coordinates flip Y so row 0 of the canvas lands at the top of the window.
var planeVertices = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

func NewFramePlane(width, height int) *FramePlane {
	plane := &FramePlane{width: width, height: height}

	gl.GenVertexArrays(1, &plane.vao)
	gl.BindVertexArray(plane.vao)

	gl.GenBuffers(1, &plane.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, plane.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(planeVertices)*4, gl.Ptr(planeVertices), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.GenTextures(1, &plane.texture)
	gl.BindTexture(gl.TEXTURE_2D, plane.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, nil)

	return plane
}

// Upload replaces the texture contents with RGBA pixel data.
func (plane *FramePlane) Upload(pixels []uint8) {
	gl.BindTexture(gl.TEXTURE_2D, plane.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(plane.width), int32(plane.height),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

func (plane *FramePlane) Draw() {
	gl.BindVertexArray(plane.vao)
	gl.BindTexture(gl.TEXTURE_2D, plane.texture)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

func (plane *FramePlane) Release() {
	gl.DeleteTextures(1, &plane.texture)
	gl.DeleteBuffers(1, &plane.vbo)
	gl.DeleteVertexArrays(1, &plane.vao)
}
