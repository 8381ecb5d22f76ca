// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build unix && !wsi_glfw

package wsi

// keymap maps Linux evdev scan codes (as delivered by X11/XCB and
// Wayland, which both encode keycode = evdev code + 8) to Key values.
// Index 0 is unused since XCB subtracts 8 from its raw keycode before
// indexing.
var keymap = [...]Key{
	1:   KeyEsc,
	2:   Key1,
	3:   Key2,
	4:   Key3,
	5:   Key4,
	6:   Key5,
	7:   Key6,
	8:   Key7,
	9:   Key8,
	10:  Key9,
	11:  Key0,
	12:  KeyMinus,
	13:  KeyEqual,
	14:  KeyBackspace,
	15:  KeyTab,
	16:  KeyQ,
	17:  KeyW,
	18:  KeyE,
	19:  KeyR,
	20:  KeyT,
	21:  KeyY,
	22:  KeyU,
	23:  KeyI,
	24:  KeyO,
	25:  KeyP,
	26:  KeyLBracket,
	27:  KeyRBracket,
	28:  KeyReturn,
	29:  KeyLCtrl,
	30:  KeyA,
	31:  KeyS,
	32:  KeyD,
	33:  KeyF,
	34:  KeyG,
	35:  KeyH,
	36:  KeyJ,
	37:  KeyK,
	38:  KeyL,
	39:  KeySemicolon,
	40:  KeyApostrophe,
	41:  KeyGrave,
	42:  KeyLShift,
	43:  KeyBackslash,
	44:  KeyZ,
	45:  KeyX,
	46:  KeyC,
	47:  KeyV,
	48:  KeyB,
	49:  KeyN,
	50:  KeyM,
	51:  KeyComma,
	52:  KeyDot,
	53:  KeySlash,
	54:  KeyRShift,
	55:  KeyPadStar,
	56:  KeyLAlt,
	57:  KeySpace,
	58:  KeyCapsLock,
	59:  KeyF1,
	60:  KeyF2,
	61:  KeyF3,
	62:  KeyF4,
	63:  KeyF5,
	64:  KeyF6,
	65:  KeyF7,
	66:  KeyF8,
	67:  KeyF9,
	68:  KeyF10,
	69:  KeyPadNumLock,
	70:  KeyScrollLock,
	71:  KeyPad7,
	72:  KeyPad8,
	73:  KeyPad9,
	74:  KeyPadMinus,
	75:  KeyPad4,
	76:  KeyPad5,
	77:  KeyPad6,
	78:  KeyPadPlus,
	79:  KeyPad1,
	80:  KeyPad2,
	81:  KeyPad3,
	82:  KeyPad0,
	83:  KeyPadDot,
	87:  KeyF11,
	88:  KeyF12,
	96:  KeyPadEnter,
	97:  KeyRCtrl,
	98:  KeyPadSlash,
	99:  KeySysrq,
	100: KeyRAlt,
	102: KeyHome,
	103: KeyUp,
	104: KeyPageUp,
	105: KeyLeft,
	106: KeyRight,
	107: KeyEnd,
	108: KeyDown,
	109: KeyPageDown,
	110: KeyInsert,
	111: KeyDelete,
	119: KeyPause,
	125: KeyLMeta,
	126: KeyRMeta,
}
