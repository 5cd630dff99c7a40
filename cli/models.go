package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/absmach/fedkit/pkg/sdk"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const filePermission = 0o644

var (
	interactive    bool
	errLayersSizes = errors.New("layers sizes must be comma-separated non-negative integers")
	errFileKind    = errors.New("model file must have a .tflite or .mlmodel extension")
)

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [list|view|upload|file|download]",
		Short: "Models manager",
		Long:  `List, view and upload models and their files.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List models",
		Long:  `List models, newest first.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListModels(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View model",
		Long:  `View model.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			id, err := parseID(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			m, err := fsdk.ViewModel(id)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <name> <data_type> <layers_sizes>",
		Short: "Upload model",
		Long: `Register a new model.

Examples:
  # Register a model trained on MNIST images
  fedkit-cli models upload mnist-cnn mnist 1000,10,40,4

  # Prompt for every field
  fedkit-cli models upload -i`,
		Run: func(cmd *cobra.Command, args []string) {
			var (
				req sdk.UploadData
				err error
			)
			switch {
			case interactive:
				req, err = promptUploadData()
			case len(args) == 3:
				req.Name, req.DataType = args[0], args[1]
				req.LayersSizes, err = parseLayers(args[2])
			default:
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := fsdk.UploadData(req)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	uploadCmd.Flags().BoolVarP(
		&interactive,
		"interactive",
		"i",
		false,
		"Prompt for model fields",
	)

	fileCmd := &cobra.Command{
		Use:   "file <id> <path>",
		Short: "Upload model file",
		Long: `Attach a .tflite or .mlmodel file to a model. The file kind is taken
from the extension.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			id, err := parseID(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			kind, err := fileKind(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := fsdk.UploadModelFile(id, kind, filepath.Base(args[1]), data)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	downloadCmd := &cobra.Command{
		Use:   "download <id> <path>",
		Short: "Download model file",
		Long:  `Download a model file. The file kind is taken from the extension of path.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			id, err := parseID(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			kind, err := fileKind(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			data, err := fsdk.DownloadModelFile(id, kind)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if err := os.WriteFile(args[1], data, filePermission); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, fmt.Sprintf("Saved %d bytes to %s", len(data), args[1]))
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(uploadCmd)
	cmd.AddCommand(fileCmd)
	cmd.AddCommand(downloadCmd)

	addPageFlags(cmd)

	return cmd
}

func promptUploadData() (sdk.UploadData, error) {
	var name, dataType, layers string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model name").
				Value(&name).
				Validate(notBlank),
			huh.NewInput().
				Title("Data type").
				Description("Advertised by clients, e.g. mnist").
				Value(&dataType).
				Validate(notBlank),
			huh.NewInput().
				Title("Layer sizes").
				Description("Comma-separated, e.g. 1000,10,40,4").
				Value(&layers).
				Validate(func(s string) error {
					_, err := parseLayers(s)

					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return sdk.UploadData{}, err
	}

	sizes, err := parseLayers(layers)
	if err != nil {
		return sdk.UploadData{}, err
	}

	return sdk.UploadData{
		Name:        strings.TrimSpace(name),
		LayersSizes: sizes,
		DataType:    strings.TrimSpace(dataType),
	}, nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("may not be blank")
	}

	return nil
}

func parseLayers(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int64{}, nil
	}

	parts := strings.Split(s, ",")
	sizes := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return nil, errLayersSizes
		}
		sizes = append(sizes, n)
	}

	return sizes, nil
}

func fileKind(path string) (sdk.FileKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tflite":
		return sdk.TFLite, nil
	case ".mlmodel":
		return sdk.MLModel, nil
	default:
		return "", errFileKind
	}
}
