package ground

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// TextureRegion describes a sub-rectangle within an atlas page.
type TextureRegion struct {
	Page   uint16 // atlas page index
	X, Y   uint16 // top-left corner of the sub-image rect within the atlas page
	Width  uint16
	Height uint16
}

// Atlas holds one or more piece-set page images and a map of named regions.
// Regions are named after pieces, e.g. "white r-piece" or
// "black promoted b-piece".
type Atlas struct {
	// Pages contains the atlas page images indexed by page number.
	Pages   []*ebiten.Image
	regions map[string]TextureRegion
	images  map[string]*ebiten.Image
}

// Region returns the TextureRegion for the given name.
func (a *Atlas) Region(name string) (TextureRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Len returns the number of named regions.
func (a *Atlas) Len() int {
	return len(a.regions)
}

// Image returns the sub-image for name. Missing regions or pages yield the
// magenta placeholder so that a broken piece set is visible rather than blank.
func (a *Atlas) Image(name string) *ebiten.Image {
	if img, ok := a.images[name]; ok {
		return img
	}
	r, ok := a.regions[name]
	if !ok || int(r.Page) >= len(a.Pages) || a.Pages[r.Page] == nil {
		return ensureMagentaImage()
	}
	img := a.Pages[r.Page].SubImage(image.Rect(
		int(r.X), int(r.Y), int(r.X)+int(r.Width), int(r.Y)+int(r.Height),
	)).(*ebiten.Image)
	if a.images == nil {
		a.images = make(map[string]*ebiten.Image)
	}
	a.images[name] = img
	return img
}

// PieceRegionName is the region name looked up for p.
func PieceRegionName(p Piece) string {
	if p.Promoted {
		return p.Side.String() + " promoted " + string(p.Role)
	}
	return p.Side.String() + " " + string(p.Role)
}

// magenta placeholder singleton (no sync.Once: single-threaded)
var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// LoadAtlas parses TexturePacker JSON data and associates the given page images.
// Supports both the hash format (single "frames" object) and the array format
// ("textures" array with per-page frame lists).
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	// Probe top-level keys to detect format.
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("ground: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{
		Pages:   pages,
		regions: make(map[string]TextureRegion),
	}

	switch {
	case probe.Textures != nil:
		if err := parseArrayFormat(probe.Textures, atlas); err != nil {
			return nil, err
		}
	case probe.Frames != nil:
		if err := parseHashFrames(probe.Frames, 0, atlas); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ground: atlas JSON has neither \"frames\" nor \"textures\" key")
	}

	return atlas, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame jsonRect `json:"frame"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

// parseHashFrames parses the hash format: {"name": {frame...}, ...}
func parseHashFrames(raw json.RawMessage, pageIndex uint16, atlas *Atlas) error {
	var frames map[string]jsonFrame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return fmt.Errorf("ground: failed to parse atlas frames: %w", err)
	}
	for name, f := range frames {
		atlas.regions[name] = frameToRegion(f, pageIndex)
	}
	return nil
}

// parseArrayFormat parses the array format: [{"image":"...", "frames":{...}}, ...]
func parseArrayFormat(raw json.RawMessage, atlas *Atlas) error {
	var textures []jsonTexturePage
	if err := json.Unmarshal(raw, &textures); err != nil {
		return fmt.Errorf("ground: failed to parse atlas textures array: %w", err)
	}
	for i, tex := range textures {
		for name, f := range tex.Frames {
			atlas.regions[name] = frameToRegion(f, uint16(i))
		}
	}
	return nil
}

func frameToRegion(f jsonFrame, page uint16) TextureRegion {
	return TextureRegion{
		Page:   page,
		X:      uint16(f.Frame.X),
		Y:      uint16(f.Frame.Y),
		Width:  uint16(f.Frame.W),
		Height: uint16(f.Frame.H),
	}
}
