// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build wsi_glfw

package wsi

import (
	"errors"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// initGLFW initializes the GLFW platform.
// It is selected at build time via the wsi_glfw build tag, as an
// alternative to the native XCB/Wayland/Win32 backends - useful when
// targeting platforms (or drivers) for which no native backend exists
// in this tree, such as macOS.
func initGLFW() error {
	if err := glfw.Init(); err != nil {
		return errors.New("wsi: glfw.Init failed: " + err.Error())
	}
	// GPU surface creation is handled by the driver package, not by
	// GLFW's own (OpenGL/OpenGL ES) context machinery.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	newWindow = newWindowGLFW
	dispatch = dispatchGLFW
	setAppName = setAppNameGLFW
	platform = glfwPlatform
	return nil
}

// glfwPlatform identifies the GLFW-backed platform.
// It is distinct from the fixed Platform enumerators defined in
// wsi.go because GLFW itself abstracts over several of them.
const glfwPlatform Platform = 1 << 30

// deinitGLFW deinitializes the GLFW platform.
func deinitGLFW() {
	if windowCount > 0 {
		for _, w := range createdWindows {
			if w != nil {
				w.Close()
			}
		}
	}
	glfw.Terminate()
	initDummy()
}

// windowGLFW implements Window over a *glfw.Window.
type windowGLFW struct {
	win    *glfw.Window
	width  int
	height int
	title  string
	hidden bool
}

// newWindowGLFW creates a new window.
func newWindowGLFW(width, height int, title string) (Window, error) {
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.New("wsi: glfw.CreateWindow failed: " + err.Error())
	}
	win.Hide()
	w := &windowGLFW{win: win, width: width, height: height, title: title, hidden: true}

	win.SetCloseCallback(func(_ *glfw.Window) {
		if windowHandler != nil {
			windowHandler.WindowClose(w)
		}
	})
	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if windowHandler != nil {
			windowHandler.WindowResize(w, width, height)
		}
	})
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if keyboardHandler == nil {
			return
		}
		if focused {
			keyboardHandler.KeyboardIn(w)
		} else {
			keyboardHandler.KeyboardOut(w)
		}
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if keyboardHandler == nil || action == glfw.Repeat {
			return
		}
		k := KeyUnknown
		if key >= 0 && int(key) < len(keymap) {
			k = keymap[key]
		}
		keyboardHandler.KeyboardKey(k, action == glfw.Press, modifierFromGLFW(mods))
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if pointerHandler != nil {
			pointerHandler.PointerMotion(int(xpos), int(ypos))
		}
	})
	win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if pointerHandler == nil {
			return
		}
		x, y := win.GetCursorPos()
		if entered {
			pointerHandler.PointerIn(w, int(x), int(y))
		} else {
			pointerHandler.PointerOut(w)
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if pointerHandler == nil {
			return
		}
		x, y := win.GetCursorPos()
		pointerHandler.PointerButton(buttonFromGLFW(button), action == glfw.Press, int(x), int(y))
	})

	return w, nil
}

func modifierFromGLFW(mods glfw.ModifierKey) Modifier {
	var m Modifier
	if mods&glfw.ModShift != 0 {
		m |= ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= ModCtrl
	}
	if mods&glfw.ModAlt != 0 {
		m |= ModAlt
	}
	if mods&glfw.ModCapsLock != 0 {
		m |= ModCapsLock
	}
	return m
}

func buttonFromGLFW(b glfw.MouseButton) Button {
	switch b {
	case glfw.MouseButton1:
		return BtnLeft
	case glfw.MouseButton2:
		return BtnRight
	case glfw.MouseButton3:
		return BtnMiddle
	case glfw.MouseButton4:
		return BtnBackward
	case glfw.MouseButton5:
		return BtnForward
	default:
		return BtnUnknown
	}
}

// Map makes the window visible.
func (w *windowGLFW) Map() error {
	if w.hidden {
		w.win.Show()
		w.hidden = false
	}
	return nil
}

// Unmap hides the window.
func (w *windowGLFW) Unmap() error {
	if !w.hidden {
		w.win.Hide()
		w.hidden = true
	}
	return nil
}

// Resize resizes the window.
func (w *windowGLFW) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("wsi: width/height less than or equal 0")
	}
	w.win.SetSize(width, height)
	w.width = width
	w.height = height
	return nil
}

// SetTitle sets the window's title.
func (w *windowGLFW) SetTitle(title string) error {
	if title != w.title {
		w.win.SetTitle(title)
		w.title = title
	}
	return nil
}

// Close closes the window.
func (w *windowGLFW) Close() {
	if w != nil && w.win != nil {
		closeWindow(w)
		w.win.Destroy()
		w.win = nil
	}
}

// Width returns the window's width.
func (w *windowGLFW) Width() int { return w.width }

// Height returns the window's height.
func (w *windowGLFW) Height() int { return w.height }

// Title returns the window's title.
func (w *windowGLFW) Title() string { return w.title }

// dispatchGLFW dispatches queued events.
func dispatchGLFW() {
	glfw.PollEvents()
}

// setAppNameGLFW updates the string used to identify the application.
// GLFW has no portable application-name concept distinct from each
// window's title, so this is a no-op.
func setAppNameGLFW(string) {}

// NativeHandleGLFW returns the underlying *glfw.Window for win.
// It must not be called unless the glfw platform is in use.
func NativeHandleGLFW(win Window) *glfw.Window {
	if w, ok := win.(*windowGLFW); ok {
		return w.win
	}
	return nil
}
