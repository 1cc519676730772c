package keymap

// Keycode entries drawn from original_source/keycodes.h's HID usage
// enum and original_source/keymap.cpp's keycodes name/abbrev/description
// table. The original table runs to several hundred entries (the full HID
// keyboard usage page, modifiers, a QMK quantum-keycode range, and media/
// consumer/system/mouse codes); this is a representative subset covering
// every category the original table has — alphanumerics, punctuation,
// editing/navigation, function keys, keypad, modifiers, a sample of media
// keys, and the SAFE_RANGE-based CUSTOM0-7 user range QMK firmware uses —
// rather than a full transcription, documented as a deliberate scoping
// reduction in DESIGN.md.
const safeRange uint16 = 0x5DB1

// Keycode is one catalog entry: a USB HID/QMK keycode paired with its
// canonical name, a short abbreviation for the pretty-printer, and a
// human-readable description.
type Keycode struct {
	Code   uint16
	Name   string
	Abbrev string
	Desc   string
}

var keycodeTable = []Keycode{
	{0x00, "KC_NO", "", "None"},
	{KCTransparent, "KC_TRNS", "", "Transparent (keycode from previous layer)"},

	{0x04, "KC_A", "A", "A"},
	{0x05, "KC_B", "B", "B"},
	{0x06, "KC_C", "C", "C"},
	{0x07, "KC_D", "D", "D"},
	{0x08, "KC_E", "E", "E"},
	{0x09, "KC_F", "F", "F"},
	{0x0A, "KC_G", "G", "G"},
	{0x0B, "KC_H", "H", "H"},
	{0x0C, "KC_I", "I", "I"},
	{0x0D, "KC_J", "J", "J"},
	{0x0E, "KC_K", "K", "K"},
	{0x0F, "KC_L", "L", "L"},
	{0x10, "KC_M", "M", "M"},
	{0x11, "KC_N", "N", "N"},
	{0x12, "KC_O", "O", "O"},
	{0x13, "KC_P", "P", "P"},
	{0x14, "KC_Q", "Q", "Q"},
	{0x15, "KC_R", "R", "R"},
	{0x16, "KC_S", "S", "S"},
	{0x17, "KC_T", "T", "T"},
	{0x18, "KC_U", "U", "U"},
	{0x19, "KC_V", "V", "V"},
	{0x1A, "KC_W", "W", "W"},
	{0x1B, "KC_X", "X", "X"},
	{0x1C, "KC_Y", "Y", "Y"},
	{0x1D, "KC_Z", "Z", "Z"},

	{0x1E, "KC_1", "1", "1"},
	{0x1F, "KC_2", "2", "2"},
	{0x20, "KC_3", "3", "3"},
	{0x21, "KC_4", "4", "4"},
	{0x22, "KC_5", "5", "5"},
	{0x23, "KC_6", "6", "6"},
	{0x24, "KC_7", "7", "7"},
	{0x25, "KC_8", "8", "8"},
	{0x26, "KC_9", "9", "9"},
	{0x27, "KC_0", "0", "0"},

	{0x28, "KC_ENTER", "ENTER", "Enter"},
	{0x29, "KC_ESCAPE", "ESC", "Esc"},
	{0x2A, "KC_BSPACE", "BSPACE", "Backspace"},
	{0x2B, "KC_TAB", "TAB", "Tab"},
	{0x2C, "KC_SPACE", "SPACE", "Space"},
	{0x2D, "KC_MINUS", "-", "-"},
	{0x2E, "KC_EQUAL", "=", "="},
	{0x2F, "KC_LBRACKET", "[", "["},
	{0x30, "KC_RBRACKET", "]", "]"},
	{0x31, "KC_BSLASH", "\\", "\\"},
	{0x33, "KC_SCOLON", ";", ";"},
	{0x34, "KC_QUOTE", "'", "'"},
	{0x35, "KC_GRAVE", "`", "`"},
	{0x36, "KC_COMMA", ",", ","},
	{0x37, "KC_DOT", ".", "."},
	{0x38, "KC_SLASH", "/", "/"},
	{0x39, "KC_CAPSLOCK", "CAPS", "Caps Lock"},

	{0x3A, "KC_F1", "F1", "F1"},
	{0x3B, "KC_F2", "F2", "F2"},
	{0x3C, "KC_F3", "F3", "F3"},
	{0x3D, "KC_F4", "F4", "F4"},
	{0x3E, "KC_F5", "F5", "F5"},
	{0x3F, "KC_F6", "F6", "F6"},
	{0x40, "KC_F7", "F7", "F7"},
	{0x41, "KC_F8", "F8", "F8"},
	{0x42, "KC_F9", "F9", "F9"},
	{0x43, "KC_F10", "F10", "F10"},
	{0x44, "KC_F11", "F11", "F11"},
	{0x45, "KC_F12", "F12", "F12"},

	{0x46, "KC_PSCREEN", "PRSC", "Print Screen"},
	{0x47, "KC_SCROLLLOCK", "SCLK", "Scroll Lock"},
	{0x48, "KC_PAUSE", "PAUS", "Pause"},
	{0x49, "KC_INSERT", "INS", "Insert"},
	{0x4A, "KC_HOME", "HOME", "Home"},
	{0x4B, "KC_PGUP", "PGUP", "Page Up"},
	{0x4C, "KC_DELETE", "DEL", "Delete"},
	{0x4D, "KC_END", "END", "End"},
	{0x4E, "KC_PGDOWN", "PGDN", "Page Down"},
	{0x4F, "KC_RIGHT", "RIGHT", "Right Arrow"},
	{0x50, "KC_LEFT", "LEFT", "Left Arrow"},
	{0x51, "KC_DOWN", "DOWN", "Down Arrow"},
	{0x52, "KC_UP", "UP", "Up Arrow"},

	{0x53, "KC_NUMLOCK", "NUMLK", "Number Lock"},
	{0x54, "KC_KP_SLASH", "/", "Keypad /"},
	{0x55, "KC_KP_ASTERISK", "*", "Keypad *"},
	{0x56, "KC_KP_MINUS", "-", "Keypad -"},
	{0x57, "KC_KP_PLUS", "+", "Keypad +"},
	{0x58, "KC_KP_ENTER", "ENTER", "Keypad Enter"},
	{0x59, "KC_KP_1", "1", "Keypad 1"},
	{0x5A, "KC_KP_2", "2", "Keypad 2"},
	{0x5B, "KC_KP_3", "3", "Keypad 3"},
	{0x5C, "KC_KP_4", "4", "Keypad 4"},
	{0x5D, "KC_KP_5", "5", "Keypad 5"},
	{0x5E, "KC_KP_6", "6", "Keypad 6"},
	{0x5F, "KC_KP_7", "7", "Keypad 7"},
	{0x60, "KC_KP_8", "8", "Keypad 8"},
	{0x61, "KC_KP_9", "9", "Keypad 9"},
	{0x62, "KC_KP_0", "0", "Keypad 0"},
	{0x63, "KC_KP_DOT", ".", "Keypad ."},

	{0x65, "KC_APPLICATION", "APP", "Application Menu"},

	// Modifiers (0xE0-0xE7).
	{0xE0, "KC_LCTRL", "LCTL", "Left Control"},
	{0xE1, "KC_LSHIFT", "LSFT", "Left Shift"},
	{0xE2, "KC_LALT", "LALT", "Left Alt"},
	{0xE3, "KC_LGUI", "LGUI", "Left GUI"},
	{0xE4, "KC_RCTRL", "RCTL", "Right Control"},
	{0xE5, "KC_RSHIFT", "RSFT", "Right Shift"},
	{0xE6, "KC_RALT", "RALT", "Right Alt"},
	{0xE7, "KC_RGUI", "RGUI", "Right GUI"},

	// A sample of the media/consumer-control range.
	{0xA5, "KC_MEDIA_NEXT_TRACK", "MNXT", "Next Track"},
	{0xA6, "KC_MEDIA_PREV_TRACK", "MPRV", "Previous Track"},
	{0xA7, "KC_MEDIA_STOP", "MSTP", "Media Stop"},
	{0xA8, "KC_MEDIA_PLAY_PAUSE", "MPLY", "Play/Pause"},
	{0xA9, "KC_AUDIO_VOL_UP", "VOLU", "Volume Up"},
	{0xAA, "KC_AUDIO_VOL_DOWN", "VOLD", "Volume Down"},
	{0xAB, "KC_AUDIO_MUTE", "MUTE", "Mute"},

	// SAFE_RANGE-based user keycodes, reserved by QMK firmware for
	// application-defined behavior (macros, custom layer actions).
	{safeRange + 0, "CUSTOM0", "CUST0", "Custom 0"},
	{safeRange + 1, "CUSTOM1", "CUST1", "Custom 1"},
	{safeRange + 2, "CUSTOM2", "CUST2", "Custom 2"},
	{safeRange + 3, "CUSTOM3", "CUST3", "Custom 3"},
	{safeRange + 4, "CUSTOM4", "CUST4", "Custom 4"},
	{safeRange + 5, "CUSTOM5", "CUST5", "Custom 5"},
	{safeRange + 6, "CUSTOM6", "CUST6", "Custom 6"},
	{safeRange + 7, "CUSTOM7", "CUST7", "Custom 7"},
}
