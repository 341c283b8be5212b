package glfwhost

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Key names the keys a desktop viewer binds.
type Key int

const (
	KeyB Key = iota
	KeyF
	KeyG
	KeyL
	KeyR
	KeyX
	KeyLeft
	KeyRight
	KeyEscape
)

var keyToGlfw = map[Key]glfw.Key{
	KeyB:      glfw.KeyB,
	KeyF:      glfw.KeyF,
	KeyG:      glfw.KeyG,
	KeyL:      glfw.KeyL,
	KeyR:      glfw.KeyR,
	KeyX:      glfw.KeyX,
	KeyLeft:   glfw.KeyLeft,
	KeyRight:  glfw.KeyRight,
	KeyEscape: glfw.KeyEscape,
}

var glfwToKey = func() map[glfw.Key]Key {
	m := make(map[glfw.Key]Key, len(keyToGlfw))
	for k, g := range keyToGlfw {
		m[g] = k
	}
	return m
}()

var buttonToDOM = map[glfw.MouseButton]int{
	glfw.MouseButtonLeft:   0,
	glfw.MouseButtonMiddle: 1,
	glfw.MouseButtonRight:  2,
}

// wheelLine is the DOM deltaY of one scroll notch.
const wheelLine = 100
