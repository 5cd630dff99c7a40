// Package artifact stores model files. Paths are slash-separated and relative,
// as produced by model.TFLiteModel.Path.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid artifact path")
	ErrUnsupported = errors.New("unsupported artifact store type")
)

type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}

type Config struct {
	Type         string `env:"TYPE"         envDefault:"fs"`
	Root         string `env:"ROOT"         envDefault:"./data/models"`
	Registry     string `env:"REGISTRY"     envDefault:"localhost:5000/fedkit/models"`
	PlainHTTP    bool   `env:"PLAIN_HTTP"   envDefault:"false"`
	Authenticate bool   `env:"AUTHENTICATE" envDefault:"false"`
	Token        string `env:"PAT"          envDefault:""`
	Username     string `env:"USERNAME"     envDefault:""`
	Password     string `env:"PASSWORD"     envDefault:""`
}

func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "fs":
		return NewFSStore(cfg.Root)
	case "oci":
		return NewOCIStore(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Type)
	}
}

func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}
