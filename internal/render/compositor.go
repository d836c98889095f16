package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/SGiQ/reelforge/internal/models"
)

// Frame geometry for vertical-format output.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
)

// Text slide layout.
const (
	wrapCharWidth  = 22
	lineSpacing    = 1.25
	shadowOffsetX  = 4
	shadowOffsetY  = 4
	shadowAlpha    = 120
	shadowBlurSize = 4
)

// Closing slide layout.
const (
	logoMaxWidth   = 600
	logoMaxHeight  = 300
	logoMargin     = 60
	initialsSize   = 120
	brandNameSize  = 72
	qrSize         = 280
	qrCardPad      = 20
	closingSpacing = 80
)

// Compositor synthesizes raster frames for one render run. It holds no
// per-slide state and is safe for concurrent ComposeSlide calls once the
// shared background has been built.
type Compositor struct {
	fonts *FontLibrary
}

func NewCompositor(fonts *FontLibrary) *Compositor {
	return &Compositor{fonts: fonts}
}

// ComposeBackground builds the shared background frame: the theme's 135°
// gradient, then the watermark scaled to cover and faded to the requested
// opacity, then the theme overlay. The layer order is load-bearing; the
// output must match the brand preview pixel for pixel.
func (c *Compositor) ComposeBackground(theme Theme, watermark image.Image, opacity int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	fillGradient135(frame, theme.GradientStart, theme.GradientEnd)

	if watermark != nil {
		if opacity < 0 {
			opacity = 0
		}
		if opacity > 100 {
			opacity = 100
		}
		wm := coverCrop(watermark, FrameWidth, FrameHeight)
		fadeAlpha(wm, float64(opacity)/100)
		draw.Draw(frame, frame.Bounds(), wm, image.Point{}, draw.Over)
	}

	draw.Draw(frame, frame.Bounds(), &image.Uniform{theme.Overlay}, image.Point{}, draw.Over)
	return frame
}

// ComposeSlide draws one text slide over a copy of the background.
func (c *Compositor) ComposeSlide(background *image.RGBA, slide models.Slide, theme Theme) *image.RGBA {
	frame := cloneRGBA(background)

	size := float64(slide.FontSize)
	if size <= 0 {
		size = models.DefaultFontSize
	}
	face := c.fonts.Face(slide.FontFamily, size)
	textColor := theme.Text
	if parsed, ok := parseHexColor(slide.TextColor); ok {
		textColor = parsed
	}

	lines := wrapText(slide.Text, wrapCharWidth)
	metrics := face.Metrics()
	lineHeight := int(float64(metrics.Height.Ceil()) * lineSpacing)
	blockHeight := lineHeight * len(lines)
	top := (FrameHeight-blockHeight)/2 + metrics.Ascent.Ceil()

	// Shadow glyphs go on their own transparent layer so the blur does
	// not bleed into the background.
	shadow := image.NewRGBA(frame.Bounds())
	for i, line := range lines {
		w := measureString(face, line)
		x := (FrameWidth-w)/2 + shadowOffsetX
		y := top + i*lineHeight + shadowOffsetY
		drawString(shadow, face, line, x, y, color.NRGBA{0, 0, 0, shadowAlpha})
	}
	boxBlur(shadow, shadowBlurSize)
	draw.Draw(frame, frame.Bounds(), shadow, image.Point{}, draw.Over)

	for i, line := range lines {
		w := measureString(face, line)
		x := (FrameWidth - w) / 2
		y := top + i*lineHeight
		drawString(frame, face, line, x, y, textColor)
	}
	return frame
}

// ComposeClosing draws the final brand slide: logo (or initials), brand
// name, and a QR code on a white card. A missing logo falls back to the
// brand initials; a missing QR asset is synthesized from qrData.
func (c *Compositor) ComposeClosing(background *image.RGBA, logo image.Image, qr image.Image, brandName, qrData, logoPosition string, logoSize int, theme Theme) *image.RGBA {
	frame := cloneRGBA(background)

	var mark *image.RGBA
	anchored := false
	if logo != nil {
		maxW, maxH := logoMaxWidth, logoMaxHeight
		if logoSize > 0 {
			maxH = logoSize
			maxW = logoSize * 2
		}
		mark = fitInside(logo, maxW, maxH)
		if logoPosition != "" && logoPosition != models.LogoPositionCenter {
			drawAnchored(frame, mark, logoPosition)
			anchored = true
		}
	}

	nameFace := c.fonts.Face(models.DefaultFontFamily, brandNameSize)
	nameHeight := nameFace.Metrics().Height.Ceil()

	card := qrCard(qr, qrData)

	// Stack the centered elements and center the block vertically.
	blockHeight := nameHeight + closingSpacing + card.Bounds().Dy()
	var initialsFace font.Face
	if mark != nil && !anchored {
		blockHeight += mark.Bounds().Dy() + closingSpacing
	} else if logo == nil {
		initialsFace = c.fonts.Face(models.DefaultFontFamily, initialsSize)
		blockHeight += initialsFace.Metrics().Height.Ceil() + closingSpacing
	}
	y := (FrameHeight - blockHeight) / 2

	if mark != nil && !anchored {
		draw.Draw(frame, mark.Bounds().Add(image.Pt((FrameWidth-mark.Bounds().Dx())/2, y)), mark, image.Point{}, draw.Over)
		y += mark.Bounds().Dy() + closingSpacing
	} else if logo == nil {
		text := brandInitials(brandName)
		w := measureString(initialsFace, text)
		drawString(frame, initialsFace, text, (FrameWidth-w)/2, y+initialsFace.Metrics().Ascent.Ceil(), theme.Accent)
		y += initialsFace.Metrics().Height.Ceil() + closingSpacing
	}

	nameWidth := measureString(nameFace, brandName)
	drawString(frame, nameFace, brandName, (FrameWidth-nameWidth)/2, y+nameFace.Metrics().Ascent.Ceil(), theme.Text)
	y += nameHeight + closingSpacing

	if card != nil {
		draw.Draw(frame, card.Bounds().Add(image.Pt((FrameWidth-card.Bounds().Dx())/2, y)), card, image.Point{}, draw.Over)
	}
	return frame
}

// qrCard produces the QR code on a white card with fixed padding. A
// supplied asset is composited on opaque white first so dark-on-
// transparent QR images stay scannable; otherwise a code is synthesized
// from the data string at the low error-correction level.
func qrCard(supplied image.Image, data string) *image.RGBA {
	var code image.Image
	if supplied != nil {
		scaled := scaleToFitNearest(supplied, qrSize, qrSize)
		flat := image.NewRGBA(image.Rect(0, 0, scaled.Bounds().Dx(), scaled.Bounds().Dy()))
		draw.Draw(flat, flat.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), scaled, image.Point{}, draw.Over)
		code = flat
	} else {
		if data == "" {
			return nil
		}
		qr, err := qrcode.New(data, qrcode.Low)
		if err != nil {
			log.Printf("[Compositor] Failed to synthesize QR code: %v", err)
			return nil
		}
		code = qr.Image(qrSize)
	}

	cw := code.Bounds().Dx() + 2*qrCardPad
	ch := code.Bounds().Dy() + 2*qrCardPad
	card := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(card, card.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(card, code.Bounds().Add(image.Pt(qrCardPad, qrCardPad)), code, code.Bounds().Min, draw.Over)
	return card
}

func drawAnchored(dst *image.RGBA, img *image.RGBA, position string) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var x, y int
	switch position {
	case models.LogoPositionTopLeft:
		x, y = logoMargin, logoMargin
	case models.LogoPositionTopRight:
		x, y = FrameWidth-w-logoMargin, logoMargin
	case models.LogoPositionBottomLeft:
		x, y = logoMargin, FrameHeight-h-logoMargin
	case models.LogoPositionBottomRight:
		x, y = FrameWidth-w-logoMargin, FrameHeight-h-logoMargin
	default: // bottom_center
		x, y = (FrameWidth-w)/2, FrameHeight-h-logoMargin
	}
	draw.Draw(dst, img.Bounds().Add(image.Pt(x, y)), img, image.Point{}, draw.Over)
}

// brandInitials extracts up to two uppercase initials from a brand name.
func brandInitials(name string) string {
	var initials []rune
	for _, f := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(f)
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) >= 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}

// wrapText word-wraps text to at most width characters per line. Words
// longer than the budget get their own line rather than being split.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width {
			line += " " + word
		} else {
			lines = append(lines, line)
			line = word
		}
	}
	return append(lines, line)
}

// parseHexColor parses #rrggbb (with or without the hash) into an
// opaque color. Anything else is rejected so the theme color applies.
func parseHexColor(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return color.NRGBA{}, false
		}
		v[i] = hi<<4 | lo
	}
	return color.NRGBA{v[0], v[1], v[2], 0xff}, true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func drawString(dst draw.Image, face font.Face, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func measureString(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// fillGradient135 fills dst with a two-stop linear gradient along the
// 135° diagonal (top-left toward bottom-right).
func fillGradient135(dst *image.RGBA, start, end color.NRGBA) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	inv := 1.0 / float64(w+h-2)
	for y := 0; y < h; y++ {
		off := y * dst.Stride
		for x := 0; x < w; x++ {
			t := float64(x+y) * inv
			it := 1 - t
			dst.Pix[off] = uint8(float64(start.R)*it + float64(end.R)*t)
			dst.Pix[off+1] = uint8(float64(start.G)*it + float64(end.G)*t)
			dst.Pix[off+2] = uint8(float64(start.B)*it + float64(end.B)*t)
			dst.Pix[off+3] = 0xff
			off += 4
		}
	}
}

// coverCrop scales src to cover dstW×dstH preserving aspect ratio, then
// center-crops to exactly that size.
func coverCrop(src image.Image, dstW, dstH int) *image.RGBA {
	sb := src.Bounds()
	scale := math.Max(float64(dstW)/float64(sb.Dx()), float64(dstH)/float64(sb.Dy()))
	sw := int(math.Ceil(float64(sb.Dx()) * scale))
	sh := int(math.Ceil(float64(sb.Dy()) * scale))
	scaled := scaleBilinear(src, sw, sh)

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	offset := image.Pt((sw-dstW)/2, (sh-dstH)/2)
	draw.Draw(out, out.Bounds(), scaled, offset, draw.Src)
	return out
}

// fitInside scales src to fit within maxW×maxH preserving aspect ratio.
func fitInside(src image.Image, maxW, maxH int) *image.RGBA {
	sb := src.Bounds()
	scale := math.Min(float64(maxW)/float64(sb.Dx()), float64(maxH)/float64(sb.Dy()))
	if scale > 1 {
		scale = 1
	}
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return scaleBilinear(src, w, h)
}

// scaleToFitNearest scales src to fill maxW×maxH preserving aspect
// ratio, upscaling small sources. Nearest-neighbor sampling keeps QR
// modules hard edged.
func scaleToFitNearest(src image.Image, maxW, maxH int) *image.RGBA {
	sb := src.Bounds()
	scale := math.Min(float64(maxW)/float64(sb.Dx()), float64(maxH)/float64(sb.Dy()))
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sb.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func scaleBilinear(src image.Image, dstW, dstH int) *image.RGBA {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	if srcW <= 0 || srcH <= 0 {
		return dst
	}
	if srcW == dstW && srcH == dstH {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}

	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	for dy := 0; dy < dstH; dy++ {
		sy := float64(dy) * yRatio
		sy0 := int(sy)
		sy1 := sy0 + 1
		if sy1 >= srcH {
			sy1 = srcH - 1
		}
		fy := sy - float64(sy0)
		for dx := 0; dx < dstW; dx++ {
			sx := float64(dx) * xRatio
			sx0 := int(sx)
			sx1 := sx0 + 1
			if sx1 >= srcW {
				sx1 = srcW - 1
			}
			fx := sx - float64(sx0)

			c00 := nrgbaAt(src, bounds.Min.X+sx0, bounds.Min.Y+sy0)
			c10 := nrgbaAt(src, bounds.Min.X+sx1, bounds.Min.Y+sy0)
			c01 := nrgbaAt(src, bounds.Min.X+sx0, bounds.Min.Y+sy1)
			c11 := nrgbaAt(src, bounds.Min.X+sx1, bounds.Min.Y+sy1)

			off := dy*dst.Stride + dx*4
			for i := 0; i < 4; i++ {
				top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
				bot := float64(c01[i])*(1-fx) + float64(c11[i])*fx
				dst.Pix[off+i] = uint8(top*(1-fy) + bot*fy + 0.5)
			}
		}
	}
	return dst
}

func nrgbaAt(src image.Image, x, y int) [4]uint8 {
	r, g, b, a := src.At(x, y).RGBA()
	return [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// fadeAlpha scales every pixel's alpha (and premultiplied channels) by
// factor in place.
func fadeAlpha(img *image.RGBA, factor float64) {
	if factor >= 1 {
		return
	}
	if factor < 0 {
		factor = 0
	}
	for i := 0; i < len(img.Pix); i++ {
		img.Pix[i] = uint8(float64(img.Pix[i])*factor + 0.5)
	}
}

// boxBlur applies a separable box blur of the given radius in place.
func boxBlur(img *image.RGBA, radius int) {
	if radius <= 0 {
		return
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	tmp := make([]uint8, len(img.Pix))
	window := 2*radius + 1

	// Horizontal pass.
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			var sum [4]int
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				off := row + sx*4
				sum[0] += int(img.Pix[off])
				sum[1] += int(img.Pix[off+1])
				sum[2] += int(img.Pix[off+2])
				sum[3] += int(img.Pix[off+3])
			}
			off := row + x*4
			tmp[off] = uint8(sum[0] / window)
			tmp[off+1] = uint8(sum[1] / window)
			tmp[off+2] = uint8(sum[2] / window)
			tmp[off+3] = uint8(sum[3] / window)
		}
	}

	// Vertical pass.
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var sum [4]int
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				off := sy*img.Stride + x*4
				sum[0] += int(tmp[off])
				sum[1] += int(tmp[off+1])
				sum[2] += int(tmp[off+2])
				sum[3] += int(tmp[off+3])
			}
			off := y*img.Stride + x*4
			img.Pix[off] = uint8(sum[0] / window)
			img.Pix[off+1] = uint8(sum[1] / window)
			img.Pix[off+2] = uint8(sum[2] / window)
			img.Pix[off+3] = uint8(sum[3] / window)
		}
	}
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
