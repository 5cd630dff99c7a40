package main

import (
	"log"

	"github.com/absmach/fedkit"
	"github.com/absmach/fedkit/cli"
	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/absmach/fedkit/pkg/sdk"
	"github.com/spf13/cobra"
)

const defConfigPath = "config.toml"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fedkit-cli",
		Short: "Fedkit CLI",
		Long:  `Fedkit CLI is a command line interface for the federated learning backend.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := fedkit.LoadConfig(configPath)
			if err != nil {
				return err
			}

			sdkConf := sdk.Config{
				BackendURL:      cfg.Backend.URL,
				TLSVerification: cfg.Backend.TLSVerification,
				Timeout:         cfg.Backend.Timeout,
			}
			cli.SetSDK(sdk.NewSDK(sdkConf))
			cli.SetMQTTConfig(mqtt.Config{
				Address:     cfg.MQTT.Address,
				QoS:         cfg.MQTT.QoS,
				Timeout:     cfg.MQTT.Timeout,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
			})

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		defConfigPath,
		"Config file path",
	)

	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewAdvertiseCmd())
	rootCmd.AddCommand(cli.NewServerCmd())
	rootCmd.AddCommand(cli.NewSessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
