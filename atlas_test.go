package ground

import (
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Test JSON fixtures ---

const pieceSetJSON = `{
  "frames": {
    "white r-piece": {"frame": {"x": 0, "y": 0, "w": 64, "h": 64}},
    "black r-piece": {"frame": {"x": 64, "y": 0, "w": 64, "h": 64}},
    "white promoted p-piece": {"frame": {"x": 128, "y": 0, "w": 64, "h": 64}}
  },
  "meta": {"image": "pieces.png", "size": {"w": 256, "h": 64}}
}`

const twoPageJSON = `{
  "textures": [
    {"image": "white.png", "frames": {"white k-piece": {"frame": {"x": 0, "y": 0, "w": 32, "h": 32}}}},
    {"image": "black.png", "frames": {"black k-piece": {"frame": {"x": 10, "y": 20, "w": 32, "h": 32}}}}
  ]
}`

// --- LoadAtlas ---

func TestLoadAtlasHashFormat(t *testing.T) {
	atlas, err := LoadAtlas([]byte(pieceSetJSON), []*ebiten.Image{ebiten.NewImage(256, 64)})
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	if atlas.Len() != 3 {
		t.Errorf("regions = %d, want 3", atlas.Len())
	}
	r, ok := atlas.Region("black r-piece")
	if !ok {
		t.Fatal("black r-piece missing")
	}
	if r.X != 64 || r.Y != 0 || r.Width != 64 || r.Height != 64 || r.Page != 0 {
		t.Errorf("region = %+v, want {0 64 0 64 64}", r)
	}
}

func TestLoadAtlasArrayFormat(t *testing.T) {
	atlas, err := LoadAtlas([]byte(twoPageJSON), nil)
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	r, ok := atlas.Region("black k-piece")
	if !ok {
		t.Fatal("black k-piece missing")
	}
	if r.Page != 1 || r.X != 10 || r.Y != 20 {
		t.Errorf("region = %+v, want page 1 at (10, 20)", r)
	}
}

func TestLoadAtlasErrors(t *testing.T) {
	tests := []struct {
		name, data, want string
	}{
		{"invalid json", `{invalid`, "parse atlas JSON"},
		{"no frames", `{"meta":{}}`, "neither"},
		{"bad frames", `{"frames": []}`, "atlas frames"},
		{"bad textures", `{"textures": {}}`, "textures array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAtlas([]byte(tt.data), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

// --- Images ---

func TestAtlasImageCached(t *testing.T) {
	atlas, err := LoadAtlas([]byte(pieceSetJSON), []*ebiten.Image{ebiten.NewImage(256, 64)})
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	img := atlas.Image("white r-piece")
	if img == ensureMagentaImage() {
		t.Fatal("known region should not be the placeholder")
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 64 || h != 64 {
		t.Errorf("image size = %dx%d, want 64x64", w, h)
	}
	if atlas.Image("white r-piece") != img {
		t.Error("sub-image should be cached")
	}
}

func TestAtlasImagePlaceholder(t *testing.T) {
	atlas, err := LoadAtlas([]byte(twoPageJSON), nil)
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	if atlas.Image("white q-piece") != ensureMagentaImage() {
		t.Error("missing region should use the placeholder")
	}
	if atlas.Image("white k-piece") != ensureMagentaImage() {
		t.Error("missing page should use the placeholder")
	}
}

func TestEnsureMagentaImageSingleton(t *testing.T) {
	img1 := ensureMagentaImage()
	img2 := ensureMagentaImage()
	if img1 != img2 {
		t.Error("ensureMagentaImage returned different images")
	}
	if w, h := img1.Bounds().Dx(), img1.Bounds().Dy(); w != 1 || h != 1 {
		t.Errorf("magenta image size = %dx%d, want 1x1", w, h)
	}
}

func TestPieceRegionName(t *testing.T) {
	promoted := whitePawn
	promoted.Promoted = true
	tests := []struct {
		p    Piece
		want string
	}{
		{whiteRook, "white r-piece"},
		{blackKnight, "black n-piece"},
		{promoted, "white promoted p-piece"},
	}
	for _, tt := range tests {
		if got := PieceRegionName(tt.p); got != tt.want {
			t.Errorf("PieceRegionName(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestBoardUsesAtlasImages(t *testing.T) {
	atlas, err := LoadAtlas([]byte(pieceSetJSON), []*ebiten.Image{ebiten.NewImage(256, 64)})
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	fen := "8/8/8/8/8/8/8/Rq6"
	b, err := NewBoard(Config{FEN: &fen}, BoardOptions{Atlas: atlas, Bounds: Rect{Width: 800, Height: 800}})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	if b.pieceNodeAt("a1").Image != atlas.Image("white r-piece") {
		t.Error("rook should use its atlas region")
	}
	if b.pieceNodeAt("b1").Image != ensureMagentaImage() {
		t.Error("queen has no region and should use the placeholder")
	}
}

// --- Benchmarks ---

func BenchmarkLoadAtlas(b *testing.B) {
	data := []byte(pieceSetJSON)
	pages := []*ebiten.Image{ebiten.NewImage(256, 64)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadAtlas(data, pages)
	}
}
