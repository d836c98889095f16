package render

import "testing"

func TestFaceFallsBackToBuiltin(t *testing.T) {
	lib := NewFontLibrary("testdata/definitely-missing")

	face := lib.Face("NoSuchFont.ttf", 88)
	if face == nil {
		t.Fatal("Face must never return nil")
	}
}

func TestFaceCaches(t *testing.T) {
	lib := NewFontLibrary("testdata/definitely-missing")

	a := lib.Face("NoSuchFont.ttf", 88)
	b := lib.Face("NoSuchFont.ttf", 88)
	if a != b {
		t.Error("expected the same cached face for identical requests")
	}
}
