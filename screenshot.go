package stagehand

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to Config.ScreenshotDir with a timestamped filename.
func (g *Game) Screenshot(label string) {
	g.screenshotQueue = append(g.screenshotQueue, label)
}

// dropScreenshots discards requests made during a frame with no target.
func (g *Game) dropScreenshots() {
	if len(g.screenshotQueue) == 0 {
		return
	}
	g.log.Warn("screenshot skipped without a render target", zap.Strings("labels", g.screenshotQueue))
	g.screenshotQueue = g.screenshotQueue[:0]
}

// flushScreenshots captures screen for every queued label.
func (g *Game) flushScreenshots(screen *ebiten.Image) {
	if len(g.screenshotQueue) == 0 {
		return
	}
	defer func() { g.screenshotQueue = g.screenshotQueue[:0] }()

	dir := g.Config.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		g.log.Error("screenshot directory", zap.String("dir", dir), zap.Error(err))
		return
	}

	img := readScreen(screen)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range g.screenshotQueue {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			g.log.Error("screenshot", zap.String("label", label), zap.Error(err))
			continue
		}
		g.log.Info("screenshot saved", zap.String("path", path))
	}
}

// readScreen copies screen into straight-alpha NRGBA.
func readScreen(screen *ebiten.Image) *image.NRGBA {
	bounds := screen.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, 4*w*h)
	screen.ReadPixels(pixels)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps [A-Za-z0-9.-], replaces everything else with
// underscores, and names empty labels "unlabeled".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
