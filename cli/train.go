package cli

import (
	"github.com/absmach/fedkit/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	requireMLModel bool
	startFresh     bool
)

func NewAdvertiseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advertise <data_type>",
		Short: "Find a model for a data type",
		Long:  `Return the newest model trained on the advertised data type.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := fsdk.AdvertiseData(sdk.AdvertisedData{
				DataType:       args[0],
				RequireMLModel: requireMLModel,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	cmd.Flags().BoolVarP(
		&requireMLModel,
		"require-mlmodel",
		"m",
		false,
		"Only match models with a Core ML companion",
	)

	return cmd
}

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server <model_id>",
		Short: "Request a training session",
		Long: `Ask the backend for a training session serving a model. The reported
status is new, started or occupied.`,
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
			sd, err := fsdk.PostServerData(sdk.PostServerData{
				ID:             id,
				StartFresh:     startFresh,
				RequireMLModel: requireMLModel,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, sd)
		},
	}

	cmd.Flags().BoolVarP(
		&startFresh,
		"start-fresh",
		"f",
		false,
		"End any active session and start a new one",
	)

	cmd.Flags().BoolVarP(
		&requireMLModel,
		"require-mlmodel",
		"m",
		false,
		"Fail unless the model has a Core ML companion",
	)

	return cmd
}
