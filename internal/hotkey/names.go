package hotkey

import "strings"

// Token maps a logical key code to the token used in chord strings. Left and
// right modifiers collapse into one token.
func Token(code string) string {
	switch code {
	case "ControlLeft", "ControlRight":
		return "CTRL"
	case "ShiftLeft", "ShiftRight":
		return "SHIFT"
	case "AltLeft", "AltRight":
		return "ALT"
	case "MetaLeft", "MetaRight":
		return "WIN"
	case "Escape":
		return "ESC"
	case "Enter", "NumpadEnter":
		return "ENTER"
	case "Space":
		return "SPACE"
	}
	switch {
	case strings.HasPrefix(code, "Key") && len(code) == 4:
		return strings.ToUpper(code[3:])
	case strings.HasPrefix(code, "Digit") && len(code) == 6:
		return code[5:]
	}
	return strings.ToUpper(code)
}

var aliases = map[string]string{
	"CONTROL": "CTRL",
	"ESCAPE":  "ESC",
	"RETURN":  "ENTER",
	"META":    "WIN",
	"SUPER":   "WIN",
	"CMD":     "WIN",
	"OPTION":  "ALT",
}
