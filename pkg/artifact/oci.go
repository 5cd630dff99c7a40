package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

const (
	ArtifactType  = "application/vnd.fedkit.model.v1"
	layerTypeBase = "application/vnd.fedkit.model.layer.v1"
	maxTagLength  = 128
)

var invalidTagChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

type ociStore struct {
	target oras.Target
}

// NewOCIStore pushes every artifact as a single-layer OCI artifact to the
// configured registry repository, tagged after its path.
func NewOCIStore(cfg Config) (Store, error) {
	if err := cfg.validateRegistry(); err != nil {
		return nil, err
	}

	repo, err := remote.NewRepository(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository for %s: %w", cfg.Registry, err)
	}
	repo.PlainHTTP = cfg.PlainHTTP
	cfg.setupAuthentication(repo)

	return NewTargetStore(repo), nil
}

// NewTargetStore stores artifacts in any ORAS target, such as a local OCI
// layout or an in-memory store.
func NewTargetStore(target oras.Target) Store {
	return &ociStore{target: target}
}

func (s *ociStore) Put(ctx context.Context, p string, data []byte) error {
	cleaned, err := cleanPath(p)
	if err != nil {
		return err
	}

	layer, err := oras.PushBytes(ctx, s.target, layerMediaType(cleaned), data)
	if err != nil {
		return fmt.Errorf("failed to push layer for %s: %w", cleaned, err)
	}
	layer.Annotations = map[string]string{ocispec.AnnotationTitle: path.Base(cleaned)}

	manifest, err := oras.PackManifest(ctx, s.target, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers: []ocispec.Descriptor{layer},
		ManifestAnnotations: map[string]string{
			ocispec.AnnotationRefName: cleaned,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to pack manifest for %s: %w", cleaned, err)
	}

	if err := s.target.Tag(ctx, manifest, Tag(cleaned)); err != nil {
		return fmt.Errorf("failed to tag manifest for %s: %w", cleaned, err)
	}

	return nil
}

func (s *ociStore) Get(ctx context.Context, p string) ([]byte, error) {
	cleaned, err := cleanPath(p)
	if err != nil {
		return nil, err
	}

	desc, err := s.target.Resolve(ctx, Tag(cleaned))
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("failed to resolve manifest for %s: %w", cleaned, err)
	}

	manifestData, err := content.FetchAll(ctx, s.target, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for %s: %w", cleaned, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest for %s: %w", cleaned, err)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("%w: expected one layer for %s, found %d", pkgerrors.ErrInvalidData, cleaned, len(manifest.Layers))
	}

	data, err := content.FetchAll(ctx, s.target, manifest.Layers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to fetch layer for %s: %w", cleaned, err)
	}

	return data, nil
}

// Tag maps an artifact path onto a valid OCI tag. Paths that cannot be
// represented verbatim are replaced by their digest.
func Tag(p string) string {
	tag := invalidTagChars.ReplaceAllString(strings.ReplaceAll(p, "/", "__"), "_")
	if len(tag) > maxTagLength || tag == "" || tag[0] == '.' || tag[0] == '-' {
		sum := sha256.Sum256([]byte(p))

		return "sha256-" + hex.EncodeToString(sum[:])
	}

	return tag
}

func layerMediaType(p string) string {
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return layerTypeBase
	}

	return layerTypeBase + "+" + ext
}

func (c Config) validateRegistry() error {
	if c.Registry == "" {
		return errors.New("registry is required")
	}

	if c.Authenticate {
		hasToken := c.Token != ""
		hasCredentials := c.Username != "" && c.Password != ""

		if !hasToken && !hasCredentials {
			return errors.New("either PAT or username/password must be provided when authentication is enabled")
		}

		if hasToken && c.Username == "" {
			return errors.New("username is required when using PAT authentication")
		}
	}

	return nil
}

func (c Config) setupAuthentication(repo *remote.Repository) {
	if !c.Authenticate {
		return
	}

	var cred auth.Credential
	if c.Username != "" && c.Password != "" {
		cred = auth.Credential{
			Username: c.Username,
			Password: c.Password,
		}
	} else if c.Token != "" {
		cred = auth.Credential{
			Username:    c.Username,
			AccessToken: c.Token,
		}
	}

	repo.Client = &auth.Client{
		Client:     retry.DefaultClient,
		Cache:      auth.NewCache(),
		Credential: auth.StaticCredential(repo.Reference.Registry, cred),
	}
}
