package commands

import (
	"gradewatch/internal/components/telemetry"
	"gradewatch/internal/service"
	"gradewatch/pkg/serviceutil"
	"net/http"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "The port to listen on, defaults to the port in the config file.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--port <port>]",
	Short: "Exposes runs as a Connect endpoint so they can be triggered remotely.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		port := servePort
		if port == 0 {
			port = cfg.Service.Port
		}

		tel := newTelemetry()
		telemetry.InstrumentPerfStats(ctx, tel, telemetry.DefaultPerfStatsInterval)

		otelIntercept, err := serviceutil.NewConnectOtelInterceptor()
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle(service.NewWatchServiceHandler(
			service.NewService(newHandler(tel), tel),
			connect.WithInterceptors(
				otelIntercept,
				serviceutil.VerifyAccessTokenInterceptor(cfg.Service.AccessToken),
			),
		))

		return serviceutil.StartHttpServer(ctx, port, mux)
	},
}
