package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	glspserver "github.com/tliron/glsp/server"

	"github.com/CWBudde/go-robot-lsp/internal/lsp"
	"github.com/CWBudde/go-robot-lsp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Language Server Protocol over stdio or TCP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("tcp", false, "listen on TCP instead of stdio")
	cmd.Flags().Int("port", 8765, "TCP port when --tcp is set")
}

func runServe(cmd *cobra.Command, _ []string) error {
	useTCP, err := cmd.Flags().GetBool("tcp")
	if err != nil {
		return fmt.Errorf("failed to get tcp flag: %w", err)
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("failed to get port flag: %w", err)
	}

	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	logger := log.Logger.With().Str("component", "server").Logger()
	lsp.SetServer(server.New(cfg, logger))

	debug := log.Logger.GetLevel() <= zerolog.TraceLevel
	glspServer := glspserver.NewServer(lsp.NewHandler(), lsp.ServerName, debug)

	if useTCP {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		logger.Info().Str("address", addr).Msg("starting language server over TCP")
		return glspServer.RunTCP(addr)
	}

	logger.Info().Msg("starting language server over stdio")
	return glspServer.RunStdio()
}
