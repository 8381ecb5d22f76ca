// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build wsi_glfw

package wsi

import "github.com/go-gl/glfw/v3.3/glfw"

// keymap maps GLFW key tokens to Key values.
var keymap = [349]Key{
	glfw.KeySpace:        KeySpace,
	glfw.KeyApostrophe:   KeyApostrophe,
	glfw.KeyComma:        KeyComma,
	glfw.KeyMinus:        KeyMinus,
	glfw.KeyPeriod:       KeyDot,
	glfw.KeySlash:        KeySlash,
	glfw.Key0:            Key0,
	glfw.Key1:            Key1,
	glfw.Key2:            Key2,
	glfw.Key3:            Key3,
	glfw.Key4:            Key4,
	glfw.Key5:            Key5,
	glfw.Key6:            Key6,
	glfw.Key7:            Key7,
	glfw.Key8:            Key8,
	glfw.Key9:            Key9,
	glfw.KeySemicolon:    KeySemicolon,
	glfw.KeyEqual:        KeyEqual,
	glfw.KeyA:            KeyA,
	glfw.KeyB:            KeyB,
	glfw.KeyC:            KeyC,
	glfw.KeyD:            KeyD,
	glfw.KeyE:            KeyE,
	glfw.KeyF:            KeyF,
	glfw.KeyG:            KeyG,
	glfw.KeyH:            KeyH,
	glfw.KeyI:            KeyI,
	glfw.KeyJ:            KeyJ,
	glfw.KeyK:            KeyK,
	glfw.KeyL:            KeyL,
	glfw.KeyM:            KeyM,
	glfw.KeyN:            KeyN,
	glfw.KeyO:            KeyO,
	glfw.KeyP:            KeyP,
	glfw.KeyQ:            KeyQ,
	glfw.KeyR:            KeyR,
	glfw.KeyS:            KeyS,
	glfw.KeyT:            KeyT,
	glfw.KeyU:            KeyU,
	glfw.KeyV:            KeyV,
	glfw.KeyW:            KeyW,
	glfw.KeyX:            KeyX,
	glfw.KeyY:            KeyY,
	glfw.KeyZ:            KeyZ,
	glfw.KeyLeftBracket:  KeyLBracket,
	glfw.KeyBackslash:    KeyBackslash,
	glfw.KeyRightBracket: KeyRBracket,
	glfw.KeyGraveAccent:  KeyGrave,
	glfw.KeyEscape:       KeyEsc,
	glfw.KeyEnter:        KeyReturn,
	glfw.KeyTab:          KeyTab,
	glfw.KeyBackspace:    KeyBackspace,
	glfw.KeyInsert:       KeyInsert,
	glfw.KeyDelete:       KeyDelete,
	glfw.KeyRight:        KeyRight,
	glfw.KeyLeft:         KeyLeft,
	glfw.KeyDown:         KeyDown,
	glfw.KeyUp:           KeyUp,
	glfw.KeyPageUp:       KeyPageUp,
	glfw.KeyPageDown:     KeyPageDown,
	glfw.KeyHome:         KeyHome,
	glfw.KeyEnd:          KeyEnd,
	glfw.KeyCapsLock:     KeyCapsLock,
	glfw.KeyScrollLock:   KeyScrollLock,
	glfw.KeyNumLock:      KeyPadNumLock,
	glfw.KeyPrintScreen:  KeySysrq,
	glfw.KeyPause:        KeyPause,
	glfw.KeyF1:           KeyF1,
	glfw.KeyF2:           KeyF2,
	glfw.KeyF3:           KeyF3,
	glfw.KeyF4:           KeyF4,
	glfw.KeyF5:           KeyF5,
	glfw.KeyF6:           KeyF6,
	glfw.KeyF7:           KeyF7,
	glfw.KeyF8:           KeyF8,
	glfw.KeyF9:           KeyF9,
	glfw.KeyF10:          KeyF10,
	glfw.KeyF11:          KeyF11,
	glfw.KeyF12:          KeyF12,
	glfw.KeyF13:          KeyF13,
	glfw.KeyF14:          KeyF14,
	glfw.KeyF15:          KeyF15,
	glfw.KeyF16:          KeyF16,
	glfw.KeyF17:          KeyF17,
	glfw.KeyF18:          KeyF18,
	glfw.KeyF19:          KeyF19,
	glfw.KeyF20:          KeyF20,
	glfw.KeyF21:          KeyF21,
	glfw.KeyF22:          KeyF22,
	glfw.KeyF23:          KeyF23,
	glfw.KeyF24:          KeyF24,
	glfw.KeyKP0:          KeyPad0,
	glfw.KeyKP1:          KeyPad1,
	glfw.KeyKP2:          KeyPad2,
	glfw.KeyKP3:          KeyPad3,
	glfw.KeyKP4:          KeyPad4,
	glfw.KeyKP5:          KeyPad5,
	glfw.KeyKP6:          KeyPad6,
	glfw.KeyKP7:          KeyPad7,
	glfw.KeyKP8:          KeyPad8,
	glfw.KeyKP9:          KeyPad9,
	glfw.KeyKPDecimal:    KeyPadDot,
	glfw.KeyKPDivide:     KeyPadSlash,
	glfw.KeyKPMultiply:   KeyPadStar,
	glfw.KeyKPSubtract:   KeyPadMinus,
	glfw.KeyKPAdd:        KeyPadPlus,
	glfw.KeyKPEnter:      KeyPadEnter,
	glfw.KeyKPEqual:      KeyPadEqual,
	glfw.KeyLeftShift:    KeyLShift,
	glfw.KeyLeftControl:  KeyLCtrl,
	glfw.KeyLeftAlt:      KeyLAlt,
	glfw.KeyLeftSuper:    KeyLMeta,
	glfw.KeyRightShift:   KeyRShift,
	glfw.KeyRightControl: KeyRCtrl,
	glfw.KeyRightAlt:     KeyRAlt,
	glfw.KeyRightSuper:   KeyRMeta,
}
