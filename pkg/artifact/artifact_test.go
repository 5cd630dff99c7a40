package artifact_test

import (
	"context"
	"strings"
	"testing"

	"github.com/absmach/fedkit/pkg/artifact"
	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content/memory"
)

func stores(t *testing.T) map[string]artifact.Store {
	t.Helper()

	fs, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)

	return map[string]artifact.Store{
		"fs":  fs,
		"oci": artifact.NewTargetStore(memory.New()),
	}
}

func TestStore(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			cases := []struct {
				desc string
				path string
				data []byte
				err  error
			}{
				{desc: "tflite file", path: "mnist/mnist.tflite", data: []byte("tflite-bytes")},
				{desc: "mlmodel file", path: "mnist/mnist.mlmodel", data: []byte("mlmodel-bytes")},
				{desc: "empty path", path: "", err: artifact.ErrInvalidPath},
				{desc: "absolute path", path: "/etc/passwd", err: artifact.ErrInvalidPath},
				{desc: "escaping path", path: "../outside.tflite", err: artifact.ErrInvalidPath},
			}

			for _, tc := range cases {
				t.Run(tc.desc, func(t *testing.T) {
					err := store.Put(ctx, tc.path, tc.data)
					if tc.err != nil {
						assert.ErrorIs(t, err, tc.err)

						return
					}
					require.NoError(t, err)

					got, err := store.Get(ctx, tc.path)
					require.NoError(t, err)
					assert.Equal(t, tc.data, got)
				})
			}

			t.Run("overwrite", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "cifar/cifar.tflite", []byte("v1")))
				require.NoError(t, store.Put(ctx, "cifar/cifar.tflite", []byte("v2")))

				got, err := store.Get(ctx, "cifar/cifar.tflite")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), got)
			})

			t.Run("missing", func(t *testing.T) {
				_, err := store.Get(ctx, "absent/absent.tflite")
				assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
			})
		})
	}
}

func TestTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		path string
		want string
	}{
		{desc: "slug path", path: "mnist/mnist.tflite", want: "mnist__mnist.tflite"},
		{desc: "leading dot", path: ".hidden/.hidden.tflite"},
		{desc: "too long", path: strings.Repeat("a", 100) + "/" + strings.Repeat("a", 100) + ".tflite"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			tag := artifact.Tag(tc.path)
			if tc.want != "" {
				assert.Equal(t, tc.want, tag)

				return
			}
			assert.True(t, strings.HasPrefix(tag, "sha256-"))
			assert.LessOrEqual(t, len(tag), 128)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := artifact.New(artifact.Config{Type: "fs", Root: t.TempDir()})
	assert.NoError(t, err)

	_, err = artifact.New(artifact.Config{Type: "s3"})
	assert.ErrorIs(t, err, artifact.ErrUnsupported)

	_, err = artifact.New(artifact.Config{Type: "oci", Registry: "localhost:5000/fedkit/models", Authenticate: true})
	assert.Error(t, err)

	_, err = artifact.New(artifact.Config{Type: "oci", Registry: "localhost:5000/fedkit/models", PlainHTTP: true})
	assert.NoError(t, err)
}
