package stage

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/easel"
)

const defaultScreenshotDir = "screenshots"

// Screenshot queues a capture of the composited frame at the end of the
// next Draw. The PNG is written to ScreenshotDir as <timestamp>_<label>.png.
func (s *Stage) Screenshot(label string) {
	s.screenshots = append(s.screenshots, label)
}

// flushScreenshots writes one PNG per queued label. Failures are logged.
func (s *Stage) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshots) == 0 {
		return
	}
	labels := s.screenshots
	s.screenshots = s.screenshots[:0]

	dir := s.ScreenshotDir
	if dir == "" {
		dir = defaultScreenshotDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		easel.Logger().Warn("stage: screenshot directory", "dir", dir, "err", err)
		return
	}

	img := unpremultiply(screen)
	stamp := s.clock().Format("20060102_150405")
	for _, label := range labels {
		path := filepath.Join(dir, stamp+"_"+screenshotName(label)+".png")
		if err := writePNG(path, img); err != nil {
			easel.Logger().Warn("stage: screenshot", "path", path, "err", err)
			continue
		}
		easel.Logger().Debug("stage: screenshot", "path", path)
	}
}

// unpremultiply reads screen into a straight-alpha image.
func unpremultiply(screen *ebiten.Image) *image.NRGBA {
	b := screen.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	screen.ReadPixels(img.Pix)
	for i := 0; i < len(img.Pix); i += 4 {
		a := int(img.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for c := i; c < i+3; c++ {
			img.Pix[c] = uint8(min(int(img.Pix[c])*255/a, 255))
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// screenshotName maps label to a file-name-safe string.
func screenshotName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
