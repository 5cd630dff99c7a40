package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/absmach/fedkit/train"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var mqttCfg mqtt.Config

func SetMQTTConfig(cfg mqtt.Config) {
	mqttCfg = cfg
}

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [list|view|end|watch]",
		Short: "Training sessions manager",
		Long:  `List, view, end and watch training sessions.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Long:  `List training sessions, newest first.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListSessions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View session",
		Long:  `View training session.`,
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
			s, err := fsdk.ViewSession(id)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	endCmd := &cobra.Command{
		Use:   "end <id>",
		Short: "End session",
		Long:  `End training session and release its port.`,
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
			if err := fsdk.EndSession(id); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch session events",
		Long:  `Print session start and end events published on MQTT until interrupted.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := watchSessions(ctx, *cmd); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(endCmd)
	cmd.AddCommand(watchCmd)

	addPageFlags(cmd)

	return cmd
}

func watchSessions(ctx context.Context, cmd cobra.Command) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	id := "fedkit-cli-" + uuid.NewString()

	ps, err := mqtt.NewPubSub(mqttCfg.Address, mqttCfg.QoS, id, mqttCfg.Username, mqttCfg.Password, mqttCfg.TopicPrefix, mqttCfg.Timeout, logger)
	if err != nil {
		return err
	}
	defer ps.Disconnect(context.Background())

	topic := train.SessionTopic(mqttCfg.TopicPrefix, "+")
	if err := ps.Subscribe(ctx, topic, func(_ string, msg map[string]any) error {
		logJSONCmd(cmd, msg)

		return nil
	}); err != nil {
		return err
	}
	logSuccessCmd(cmd, "Watching "+topic)

	<-ctx.Done()

	return ps.Unsubscribe(context.Background(), topic)
}
