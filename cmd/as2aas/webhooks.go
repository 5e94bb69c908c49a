package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/internal/cache"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/webhook"
)

// readInput lee file si está; si no devuelve s.
func readInput(s, file string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	return []byte(s), nil
}

// secretOr devuelve el flag o, si está vacío, AS2AAS_WEBHOOK_SECRET.
func (a *app) secretOr(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.cfg.Webhook.Secret != "" {
		return a.cfg.Webhook.Secret, nil
	}
	return "", errors.New("falta el secret (flag --secret o env AS2AAS_WEBHOOK_SECRET)")
}

// eventPrinter escribe cada evento como una línea JSON.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) handle(ev webhook.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.NewEncoder(p.w).Encode(ev)
}

// webhookRouter monta el Receiver en path y un /healthz.
func webhookRouter(path string, rc *webhook.Receiver) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Method(http.MethodPost, path, rc)
	return r
}

func webhooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "webhooks", Short: "Firmar, verificar y recibir webhooks"}

	var signSecret, signPayload, signFile string
	sign := &cobra.Command{
		Use:   "sign",
		Short: "Calcular la firma de un payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := a.secretOr(signSecret)
			if err != nil {
				return err
			}
			body, err := readInput(signPayload, signFile)
			if err != nil {
				return err
			}
			sig := webhook.Sign(body, secret)
			return a.done(map[string]string{"signature": sig, "header": webhook.HeaderSignature}, "%s", sig)
		},
	}
	sign.Flags().StringVar(&signSecret, "secret", "", "secret del endpoint")
	sign.Flags().StringVar(&signPayload, "payload", "", "payload literal")
	sign.Flags().StringVar(&signFile, "file", "", "archivo con el payload")

	var verSecret, verPayload, verFile, verSig string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verificar la firma de un payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := a.secretOr(verSecret)
			if err != nil {
				return err
			}
			body, err := readInput(verPayload, verFile)
			if err != nil {
				return err
			}
			if !webhook.VerifySignature(body, verSig, secret) {
				return errors.New("firma inválida")
			}
			return a.done(map[string]bool{"valid": true}, "valid")
		},
	}
	verify.Flags().StringVar(&verSecret, "secret", "", "secret del endpoint")
	verify.Flags().StringVar(&verPayload, "payload", "", "payload literal")
	verify.Flags().StringVar(&verFile, "file", "", "archivo con el payload")
	verify.Flags().StringVar(&verSig, "signature", "", "valor del header "+webhook.HeaderSignature)
	_ = verify.MarkFlagRequired("signature")

	var (
		listenAddr, listenPath, listenSecret string
	)
	listen := &cobra.Command{
		Use:   "listen",
		Short: "Levantar un receptor local que imprime los eventos válidos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := a.secretOr(listenSecret)
			if err != nil {
				return err
			}
			if listenAddr == "" {
				listenAddr = a.cfg.Webhook.Addr
			}
			if !strings.HasPrefix(listenPath, "/") {
				listenPath = "/" + listenPath
			}
			ctx := cmd.Context()

			seen, err := cache.New(ctx, cache.Config{
				Kind:     a.cfg.Cache.Kind,
				Addr:     a.cfg.Cache.Redis.Addr,
				Password: a.cfg.Cache.Redis.Password,
				DB:       a.cfg.Cache.Redis.DB,
				Prefix:   a.cfg.Cache.Redis.Prefix + ":webhook",
			})
			if err != nil {
				return err
			}
			defer func() { _ = seen.Close() }()

			printer := &eventPrinter{w: a.stdout}
			rc := webhook.NewReceiver(secret, webhook.Handlers{"*": printer.handle})
			rc.Tolerance = a.cfg.WebhookTolerance()
			rc.Seen = seen
			rc.Log = a.log.Named("webhook")

			srv := &http.Server{
				Addr:              listenAddr,
				Handler:           webhookRouter(listenPath, rc),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.log.Info("webhook listener ready",
				zap.String("addr", listenAddr),
				zap.String("path", listenPath),
				zap.String("cache", a.cfg.Cache.Kind),
			)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("webhook listener: %w", err)
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				a.log.Warn("webhook listener shutdown", logger.Err(err))
			}
			return nil
		},
	}
	listen.Flags().StringVar(&listenAddr, "addr", "", "dirección de escucha (default webhook.addr, :8090)")
	listen.Flags().StringVar(&listenPath, "path", "/webhooks", "path del receptor")
	listen.Flags().StringVar(&listenSecret, "secret", "", "secret del endpoint")

	cmd.AddCommand(sign, verify, listen)
	return cmd
}
