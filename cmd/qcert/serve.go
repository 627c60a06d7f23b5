package main

import (
	"github.com/spf13/cobra"

	"github.com/remiblancher/qcert/internal/api/server"
	"github.com/remiblancher/qcert/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the certificate over HTTP",
	Long: `Start an HTTP server exposing the certificate.

Endpoints:
  GET  /health                     Liveness
  GET  /ready                      Readiness
  GET  /metrics                    Prometheus metrics
  GET  /api/v1/certificate         Certificate information (JSON)
  GET  /api/v1/certificate/pem     Certificate (PEM)
  POST /api/v1/certificate/renew   Renew, optional body {"valid_for": N}

Examples:
  qcert serve --cert ./tls/cert.pem --key ./tls/priv_key.pem --port 8080`,
	RunE: runServe,
}

var (
	serveCert string
	serveKey  string
	serveHost string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "Certificate file (default from config)")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "Private key file (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	certPath, keyPath, err := certKeyPaths(serveCert, serveKey)
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Host = serveHost
	cfg.Port = servePort
	cfg.CertFile = certPath
	cfg.KeyFile = keyPath

	srv, err := server.New(cfg, version, logger.New("server"))
	if err != nil {
		return err
	}
	return srv.Start()
}
