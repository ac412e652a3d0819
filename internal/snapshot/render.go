package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/view"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	lightSquare   = color.RGBA{233, 207, 163, 255}
	darkSquare    = color.RGBA{187, 136, 96, 255}
	backdrop      = color.RGBA{28, 31, 46, 255}
	dotColor      = color.NRGBA{R: 40, G: 40, B: 40, A: 110}
	captureColor  = color.NRGBA{R: 220, G: 60, B: 60, A: 90}
	coordColor    = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	outcomeColor  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	unknownSquare = color.NRGBA{R: 120, G: 120, B: 120, A: 90}
)

// Renderer draws a view frame as a PNG board image.
type Renderer struct {
	squareSize int
	margin     int
	header     int
}

func NewRenderer(squareSize int) *Renderer {
	if squareSize < 16 {
		squareSize = 16
	}
	return &Renderer{squareSize: squareSize, margin: 24, header: 28}
}

// Origin is the top-left pixel of square a8.
func (r *Renderer) Origin() image.Point { return image.Point{X: r.margin, Y: r.header} }

// SquareRect is the pixel rectangle of sq.
func (r *Renderer) SquareRect(sq board.Square) image.Rectangle {
	o := r.Origin()
	x := o.X + sq.File()*r.squareSize
	y := o.Y + (7-sq.Rank())*r.squareSize
	return image.Rect(x, y, x+r.squareSize, y+r.squareSize)
}

func (r *Renderer) RenderPNG(ctx context.Context, f view.Frame) ([]byte, error) {
	boardSize := r.squareSize * 8
	img := image.NewRGBA(image.Rect(0, 0, boardSize+2*r.margin, boardSize+r.header+r.margin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backdrop), image.Point{}, imagedraw.Src)

	for i := 0; i < board.NumSquares; i++ {
		sq := board.Square(i)
		imagedraw.Draw(img, r.SquareRect(sq), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, g := range f.Glyphs {
		if g == "" {
			continue
		}
		rect := r.SquareRect(board.Square(i))
		piece, ok := board.PieceForGlyph(g)
		if !ok {
			// 알 수 없는 기물은 회색 칸으로만 표시
			fillRect(img, rect, unknownSquare)
			continue
		}
		pimg, err := renderPieceImage(piece, r.squareSize)
		if err != nil {
			return nil, err
		}
		imagedraw.Draw(img, rect, pimg, image.Point{}, imagedraw.Over)
	}

	for i, on := range f.Dots {
		if !on {
			continue
		}
		rect := r.SquareRect(board.Square(i))
		if f.Glyphs[i] != "" {
			fillRect(img, rect, captureColor)
			continue
		}
		center := image.Point{X: (rect.Min.X + rect.Max.X) / 2, Y: (rect.Min.Y + rect.Max.Y) / 2}
		drawDisc(img, center, r.squareSize/6, dotColor)
	}

	r.drawCoordinates(img)
	if f.Outcome != "" {
		drawText(img, f.Outcome, r.margin, r.header-9, outcomeColor)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawCoordinates(img *image.RGBA) {
	o := r.Origin()
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	for i := 0; i < 8; i++ {
		rankY := o.Y + (7-i)*r.squareSize + r.squareSize/2 + ascent/2
		drawText(img, string(rune('1'+i)), o.X-r.margin/2-3, rankY, coordColor)
		fileX := o.X + i*r.squareSize + r.squareSize/2 - 3
		drawText(img, string(rune('a'+i)), fileX, o.Y+8*r.squareSize+ascent+2, coordColor)
	}
}

func drawText(img *image.RGBA, text string, x, baseline int, clr color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

func squareColor(sq board.Square) color.Color {
	if (sq.File()+sq.Rank())%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func fillRect(img *image.RGBA, rect image.Rectangle, clr color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			blendPixel(img, x, y, clr)
		}
	}
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	rr := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rr {
				continue
			}
			blendPixel(img, center.X+x, center.Y+y, clr)
		}
	}
}

// blendPixel composites clr over the pixel at (x, y).
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	// RGBA() is premultiplied, as is image.RGBA
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}
