package render

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// systemFontDirs are probed when the bundled font directory does not
// carry the requested family.
var systemFontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/liberation",
	"/usr/share/fonts/TTF",
	"/Library/Fonts",
	"/System/Library/Fonts",
}

// fontFallbacks maps requested families to system files that render
// acceptably in their place.
var fontFallbacks = map[string][]string{
	"DejaVuSans-Bold.ttf": {"DejaVuSans-Bold.ttf", "LiberationSans-Bold.ttf", "Arial Bold.ttf"},
	"DejaVuSans.ttf":      {"DejaVuSans.ttf", "LiberationSans-Regular.ttf", "Arial.ttf"},
}

var genericFallbacks = []string{
	"DejaVuSans-Bold.ttf",
	"DejaVuSans.ttf",
	"LiberationSans-Bold.ttf",
	"LiberationSans-Regular.ttf",
	"Helvetica.ttc",
}

// FontLibrary loads and caches faces by family and size. Lookups that
// find no usable font file fall back to a builtin bitmap face so text
// drawing always has a face to work with.
type FontLibrary struct {
	dir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func NewFontLibrary(dir string) *FontLibrary {
	return &FontLibrary{
		dir:   dir,
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Face returns a cached face for the family at the given pixel size.
func (l *FontLibrary) Face(family string, size float64) font.Face {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := faceKey{family: family, size: size}
	if f, ok := l.faces[key]; ok {
		return f
	}

	ft := l.loadFontLocked(family)
	if ft == nil {
		l.faces[key] = basicfont.Face7x13
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("[Fonts] Failed to build face for %s: %v", family, err)
		l.faces[key] = basicfont.Face7x13
		return basicfont.Face7x13
	}
	l.faces[key] = face
	return face
}

func (l *FontLibrary) loadFontLocked(family string) *opentype.Font {
	if ft, ok := l.fonts[family]; ok {
		return ft
	}

	candidates := []string{filepath.Join(l.dir, family)}
	names := fontFallbacks[family]
	if names == nil {
		names = append([]string{family}, genericFallbacks...)
	}
	for _, name := range names {
		candidates = append(candidates, filepath.Join(l.dir, name))
		for _, dir := range systemFontDirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ft, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		l.fonts[family] = ft
		return ft
	}

	log.Printf("[Fonts] No usable font file for %s, using builtin face", family)
	l.fonts[family] = nil
	return nil
}
