package render

import "image/color"

// Theme is a named, fixed bundle of gradient/overlay/text/accent colors.
// The registry is read-only after process start; compositors receive
// themes by value and never mutate them.
type Theme struct {
	Key           string
	GradientStart color.NRGBA // top-left stop of the 135° gradient
	GradientEnd   color.NRGBA // bottom-right stop
	Overlay       color.NRGBA // composited over everything, alpha baked in
	Text          color.NRGBA
	Accent        color.NRGBA
}

// DefaultThemeKey is returned for unknown theme keys. Lookup never fails.
const DefaultThemeKey = "dark"

var themes = map[string]Theme{
	"dark": {
		Key:           "dark",
		GradientStart: color.NRGBA{0x1a, 0x1a, 0x2e, 0xff},
		GradientEnd:   color.NRGBA{0x0f, 0x0f, 0x1a, 0xff},
		Overlay:       color.NRGBA{26, 26, 46, 178}, // 70% opacity
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0xa7, 0x8b, 0xfa, 0xff},
	},
	"light": {
		Key:           "light",
		GradientStart: color.NRGBA{0xf8, 0xf8, 0xf8, 0xff},
		GradientEnd:   color.NRGBA{0xe2, 0xe8, 0xf0, 0xff},
		Overlay:       color.NRGBA{248, 248, 248, 153}, // 60% opacity
		Text:          color.NRGBA{0x1a, 0x1a, 0x2e, 0xff},
		Accent:        color.NRGBA{0x7c, 0x3a, 0xed, 0xff},
	},
	"sky-blue": {
		Key:           "sky-blue",
		GradientStart: color.NRGBA{0x0e, 0xa5, 0xe9, 0xff},
		GradientEnd:   color.NRGBA{0x02, 0x84, 0xc7, 0xff},
		Overlay:       color.NRGBA{14, 165, 233, 166}, // 65% opacity
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0x7d, 0xd3, 0xfc, 0xff},
	},
	"warm-gold": {
		Key:           "warm-gold",
		GradientStart: color.NRGBA{0xd9, 0x77, 0x06, 0xff},
		GradientEnd:   color.NRGBA{0xb4, 0x53, 0x09, 0xff},
		Overlay:       color.NRGBA{217, 119, 6, 166},
		Text:          color.NRGBA{0x1c, 0x19, 0x17, 0xff},
		Accent:        color.NRGBA{0xfc, 0xd3, 0x4d, 0xff},
	},
	"crimson-red": {
		Key:           "crimson-red",
		GradientStart: color.NRGBA{0x9f, 0x12, 0x39, 0xff},
		GradientEnd:   color.NRGBA{0x4c, 0x05, 0x19, 0xff},
		Overlay:       color.NRGBA{159, 18, 57, 166},
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0xf4, 0x3f, 0x5e, 0xff},
	},
	"forest-green": {
		Key:           "forest-green",
		GradientStart: color.NRGBA{0x16, 0x65, 0x34, 0xff},
		GradientEnd:   color.NRGBA{0x14, 0x53, 0x2d, 0xff},
		Overlay:       color.NRGBA{22, 101, 52, 166},
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0x34, 0xd3, 0x99, 0xff},
	},
	"amethyst": {
		Key:           "amethyst",
		GradientStart: color.NRGBA{0x4c, 0x1d, 0x95, 0xff},
		GradientEnd:   color.NRGBA{0x2e, 0x10, 0x65, 0xff},
		Overlay:       color.NRGBA{76, 29, 149, 166},
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0xc0, 0x84, 0xfc, 0xff},
	},
	"monochrome": {
		Key:           "monochrome",
		GradientStart: color.NRGBA{0x17, 0x17, 0x17, 0xff},
		GradientEnd:   color.NRGBA{0x00, 0x00, 0x00, 0xff},
		Overlay:       color.NRGBA{0, 0, 0, 166},
		Text:          color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Accent:        color.NRGBA{0xa3, 0xa3, 0xa3, 0xff},
	},
}

// ThemeFor looks up a theme by key, falling back to the default theme
// for unknown keys.
func ThemeFor(key string) Theme {
	if t, ok := themes[key]; ok {
		return t
	}
	return themes[DefaultThemeKey]
}

// ThemeKeys returns the registered theme keys.
func ThemeKeys() []string {
	keys := make([]string, 0, len(themes))
	for k := range themes {
		keys = append(keys, k)
	}
	return keys
}
