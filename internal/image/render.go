// Package image renders game-state cards for daily summary messages.
// Layout and palette follow the Activity frontend's share card.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"wordwebs/internal/models"
)

const (
	cardWidth  = 250
	cardHeight = 225

	totalWords  = 16
	wordsPerRow = 4
	gridSize    = 20
	gridPadding = 3
	barHeight   = 22
	barPadding  = 4
	dotSize     = 4
	dotSpacing  = 8
	avatarSize  = 25
)

var (
	colorBackground = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	colorBorder     = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	colorEmpty      = color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff}
	colorWrong      = color.RGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}
	colorWhite      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorLightGray  = color.RGBA{R: 0xcb, G: 0xd5, B: 0xe1, A: 0xff}
	colorWin        = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	colorLoss       = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}

	difficultyColors = map[int]color.RGBA{
		1: {R: 0x16, G: 0xa3, B: 0x4a, A: 0xff},
		2: {R: 0xca, G: 0x8a, B: 0x04, A: 0xff},
		3: {R: 0xea, G: 0x58, B: 0x0c, A: 0xff},
		4: {R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
	}
)

// Card is one player's state on a daily puzzle.
type Card struct {
	DisplayName       string
	SolvedGroups      []models.Group
	AttemptsRemaining int
	Avatar            image.Image // optional, pre-fetched
}

// RenderCard produces the 250x225 PNG card for a single player.
func RenderCard(card Card, puzzleNumber int) ([]byte, error) {
	return encodePNG(renderCard(card, puzzleNumber))
}

// RenderSummary composes up to six player cards into a single grid,
// three per row. With no cards it renders a short placeholder banner.
func RenderSummary(cards []Card, puzzleNumber int) ([]byte, error) {
	if len(cards) == 0 {
		img := newFilled(cardWidth, 100, colorBackground)
		drawTextCentered(img, cardWidth/2, 54, "No completed games today", colorLightGray)
		return encodePNG(img)
	}

	if len(cards) > 6 {
		cards = cards[:6]
	}

	cols := len(cards)
	if cols > 3 {
		cols = 3
	}
	rows := (len(cards) + cols - 1) / cols

	combined := newFilled(cols*cardWidth, rows*cardHeight, colorBackground)
	for i, card := range cards {
		tile := renderCard(card, puzzleNumber)
		x := (i % cols) * cardWidth
		y := (i / cols) * cardHeight
		xdraw.Draw(combined, image.Rect(x, y, x+cardWidth, y+cardHeight), tile, image.Point{}, xdraw.Src)
	}
	return encodePNG(combined)
}

func renderCard(card Card, puzzleNumber int) *image.RGBA {
	img := newFilled(cardWidth, cardHeight, colorBackground)

	if card.Avatar != nil {
		dst := image.Rect(10, 10, 10+avatarSize, 10+avatarSize)
		xdraw.ApproxBiLinear.Scale(img, dst, card.Avatar, card.Avatar.Bounds(), xdraw.Over, nil)
	}

	drawTextCentered(img, cardWidth/2, 33, fmt.Sprintf("Word Webs #%d", puzzleNumber), colorWhite)

	name := card.DisplayName
	if name == "" {
		name = "Player"
	}
	drawTextCentered(img, cardWidth/2, 50, name, colorLightGray)

	y := 59

	// Solved groups as colored bars, easiest first.
	solved := make([]models.Group, len(card.SolvedGroups))
	copy(solved, card.SolvedGroups)
	sort.SliceStable(solved, func(i, j int) bool {
		return solved[i].Difficulty < solved[j].Difficulty
	})

	gridWidth := wordsPerRow*gridSize + (wordsPerRow-1)*gridPadding
	gridX := (cardWidth - gridWidth) / 2

	for _, group := range solved {
		barColor, ok := difficultyColors[group.Difficulty]
		if !ok {
			barColor = difficultyColors[1]
		}
		fillRoundedRect(img, gridX, y, gridWidth, barHeight, 4, barColor)
		y += barHeight + barPadding
	}

	// Remaining words as an anonymous grid.
	remaining := totalWords - len(solved)*wordsPerRow
	if remaining > 0 {
		y += 2
		for i := 0; i < remaining; i++ {
			x := gridX + (i%wordsPerRow)*(gridSize+gridPadding)
			boxY := y + (i/wordsPerRow)*(gridSize+gridPadding)
			fillRoundedRect(img, x, boxY, gridSize, gridSize, 3, colorEmpty)
			strokeRect(img, x, boxY, gridSize, gridSize, colorBorder)
		}
		gridRows := (remaining + wordsPerRow - 1) / wordsPerRow
		y += gridRows*(gridSize+gridPadding) + 10
	}

	// Attempt dots only while the board is unfinished.
	if len(solved) < wordsPerRow {
		dotsWidth := (models.MaxAttempts-1)*dotSpacing + dotSize
		dotsX := (cardWidth - dotsWidth) / 2
		dotsY := y + 15
		for i := 0; i < models.MaxAttempts; i++ {
			dotColor := colorWrong
			if i < card.AttemptsRemaining {
				dotColor = colorWhite
			}
			fillCircle(img, dotsX+i*dotSpacing+dotSize/2, dotsY+dotSize/2, dotSize/2, dotColor)
		}
		y = dotsY + dotSize + 5
	}

	text, statusColor := statusLine(len(solved), card.AttemptsRemaining)
	drawTextCentered(img, cardWidth/2, y+20, text, statusColor)

	return img
}

func statusLine(solvedCount, attemptsRemaining int) (string, color.RGBA) {
	switch {
	case solvedCount == 4:
		return "Completed!", colorWin
	case attemptsRemaining <= 0:
		return "Failed", colorLoss
	default:
		return fmt.Sprintf("%d/4 groups found", solvedCount), colorLightGray
	}
}

func newFilled(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, xdraw.Src)
	return img
}

func fillRoundedRect(img *image.RGBA, x, y, width, height, radius int, fill color.RGBA) {
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			if insideRounded(px, py, width, height, radius) {
				img.SetRGBA(x+px, y+py, fill)
			}
		}
	}
}

// insideRounded reports whether a pixel lies within the rounded
// rectangle, trimming the four corner squares by radius.
func insideRounded(px, py, width, height, radius int) bool {
	cx, cy := px, py
	switch {
	case px < radius && py < radius:
		cx, cy = radius, radius
	case px >= width-radius && py < radius:
		cx, cy = width-radius-1, radius
	case px < radius && py >= height-radius:
		cx, cy = radius, height-radius-1
	case px >= width-radius && py >= height-radius:
		cx, cy = width-radius-1, height-radius-1
	default:
		return true
	}
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= radius*radius
}

func strokeRect(img *image.RGBA, x, y, width, height int, line color.RGBA) {
	for px := 0; px < width; px++ {
		img.SetRGBA(x+px, y, line)
		img.SetRGBA(x+px, y+height-1, line)
	}
	for py := 0; py < height; py++ {
		img.SetRGBA(x, y+py, line)
		img.SetRGBA(x+width-1, y+py, line)
	}
}

func fillCircle(img *image.RGBA, cx, cy, radius int, fill color.RGBA) {
	for py := -radius; py <= radius; py++ {
		for px := -radius; px <= radius; px++ {
			if px*px+py*py <= radius*radius {
				img.SetRGBA(cx+px, cy+py, fill)
			}
		}
	}
}

func drawTextCentered(img *image.RGBA, cx, baseline int, text string, fill color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fill),
		Face: face,
		Dot:  fixed.P(cx-width/2, baseline),
	}
	drawer.DrawString(text)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
