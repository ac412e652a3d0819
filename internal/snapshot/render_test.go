package snapshot

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/view"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func center(r image.Rectangle) image.Point {
	return image.Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

func sameRGB(a, b color.Color) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar>>8 == br>>8 && ag>>8 == bg>>8 && ab>>8 == bb>>8
}

func TestRenderFrame(t *testing.T) {
	r := NewRenderer(48)
	var f view.Frame
	e2 := board.NewSquare(4, 1)
	e4 := board.NewSquare(4, 3)
	a8 := board.NewSquare(0, 7)
	f.Glyphs[e2] = board.Glyph('P')
	f.Glyphs[a8] = board.Glyph('r')
	f.Dots[e4] = true
	f.Outcome = "White wins"

	data, err := r.RenderPNG(context.Background(), f)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, data)
	if b := img.Bounds(); b.Dx() != 48*8+48 || b.Dy() != 48*8+28+24 {
		t.Fatalf("bounds = %v", b)
	}

	empty := board.NewSquare(3, 4)
	p := center(r.SquareRect(empty))
	if !sameRGB(img.At(p.X, p.Y), squareColor(empty)) {
		t.Fatalf("empty square not plain")
	}
	for _, sq := range []board.Square{e2, e4, a8} {
		p := center(r.SquareRect(sq))
		if sameRGB(img.At(p.X, p.Y), squareColor(sq)) {
			t.Fatalf("square %v left plain", sq)
		}
	}
}

func TestSquareRectOrientation(t *testing.T) {
	r := NewRenderer(32)
	a8 := r.SquareRect(board.NewSquare(0, 7))
	h1 := r.SquareRect(board.NewSquare(7, 0))
	if a8.Min != r.Origin() || h1.Max.X != r.Origin().X+8*32 || h1.Max.Y != r.Origin().Y+8*32 {
		t.Fatalf("a8=%v h1=%v", a8, h1)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRenderer(32).RenderPNG(ctx, view.Frame{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestAllPiecesRasterise(t *testing.T) {
	for _, c := range "KQRBNPkqrbnp" {
		piece, _ := board.Piece(board.Symbol(c))
		img, err := renderPieceImage(piece, 40)
		if err != nil {
			t.Fatalf("piece %q: %v", c, err)
		}
		_, _, _, a := img.At(20, 32).RGBA()
		if a == 0 {
			t.Fatalf("piece %q has empty body", c)
		}
	}
}

func TestWriterCoalescesToLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "board.png")
	w := NewWriter(path, NewRenderer(24), nil)

	m := view.NewModel(nil)
	m.OnChange(w.Notify)
	m.SetGlyph(0, board.Glyph('R'))
	m.SetGlyph(1, board.Glyph('N'))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for {
		if data, err := os.ReadFile(path); err == nil {
			decode(t, data)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never written")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(w.latest) != 0 {
		t.Fatalf("frame left queued")
	}
}
