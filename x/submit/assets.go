package submit

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magink/magink/x/nftstorage"
)

//go:embed assets/wizard.png
var wizardPNG []byte

// EmbeddedImage serves the bundled wizard image.
type EmbeddedImage struct{}

func (EmbeddedImage) Image(context.Context) (*nftstorage.File, error) {
	data := make([]byte, len(wizardPNG))
	copy(data, wizardPNG)
	return &nftstorage.File{Name: "wizard.png", ContentType: "image/png", Data: data}, nil
}

// FileImage reads the image from disk on every submission.
type FileImage struct {
	Path string
}

func (f FileImage) Image(context.Context) (*nftstorage.File, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", f.Path, err)
	}
	return &nftstorage.File{Name: filepath.Base(f.Path), Data: data}, nil
}

// ImageSourceFor returns the configured image source.
func ImageSourceFor(cfg Config) ImageSource {
	if cfg.ImagePath != "" {
		return FileImage{Path: cfg.ImagePath}
	}
	return EmbeddedImage{}
}
