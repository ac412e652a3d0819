package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece silhouettes on a 45x45 canvas. %[1]s receives the fill/stroke attributes.
var pieceShapes = map[nchess.PieceType][]string{
	nchess.Pawn: {
		`<circle cx="22.5" cy="14" r="5" %[1]s/>`,
		`<path d="M16 33 L19 20 L26 20 L29 33 Z" %[1]s/>`,
	},
	nchess.Rook: {
		`<path d="M12 13 L12 8 L16 8 L16 10 L20 10 L20 8 L25 8 L25 10 L29 10 L29 8 L33 8 L33 13 Z" %[1]s/>`,
		`<rect x="14" y="13" width="17" height="20" %[1]s/>`,
	},
	nchess.Knight: {
		`<path d="M14 33 L16 24 L11 20 L17 10 L24 7 L30 11 L32 33 Z" %[1]s/>`,
	},
	nchess.Bishop: {
		`<circle cx="22.5" cy="8" r="2.5" %[1]s/>`,
		`<ellipse cx="22.5" cy="19" rx="6" ry="8.5" %[1]s/>`,
		`<path d="M17 33 L19 27 L26 27 L28 33 Z" %[1]s/>`,
	},
	nchess.Queen: {
		`<path d="M10 13 L15 27 L18 11 L22.5 26 L27 11 L30 27 L35 13 L32 33 L13 33 Z" %[1]s/>`,
	},
	nchess.King: {
		`<path d="M21 4 L24 4 L24 7 L27 7 L27 10 L24 10 L24 13 L21 13 L21 10 L18 10 L18 7 L21 7 Z" %[1]s/>`,
		`<path d="M13 33 L11 19 L22.5 15 L34 19 L32 33 Z" %[1]s/>`,
	},
}

const pieceBase = `<rect x="10" y="34" width="25" height="5" %[1]s/>`

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(piece nchess.Piece) ([]byte, error) {
	shapes, ok := pieceShapes[piece.Type()]
	if !ok {
		return nil, fmt.Errorf("no shape for piece %v", piece)
	}
	style := `fill="#f8f6f0" stroke="#1a1a1a" stroke-width="1.5"`
	if piece.Color() == nchess.Black {
		style = `fill="#262626" stroke="#e6e6e6" stroke-width="1.2"`
	}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`)
	for _, s := range shapes {
		fmt.Fprintf(&b, s, style)
	}
	fmt.Fprintf(&b, pieceBase, style)
	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
