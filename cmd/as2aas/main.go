// as2aas es la CLI de la API AS2aaS: partners, master partners, mensajes,
// tenants y utilidades de webhooks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/client"
	as2err "github.com/dropDatabas3/as2aas/errors"
	"github.com/dropDatabas3/as2aas/internal/config"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
)

func main() {
	// .env opcional; sin archivo seguimos con el entorno del sistema.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd(os.Stdout)
	err := root.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// app junta los flags persistentes y lo que se arma a partir de ellos.
type app struct {
	cfgPath  string
	apiKey   string
	baseURL  string
	tenant   string
	out      string
	logLevel string

	stdout io.Writer
	cfg    *config.Config
	log    *zap.Logger
	client *client.Client
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:           "as2aas",
		Short:         "CLI para la API AS2aaS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", os.Getenv("AS2AAS_CONFIG"), "ruta al config.yaml (env AS2AAS_CONFIG)")
	pf.StringVar(&a.apiKey, "api-key", "", "API key (env AS2AAS_API_KEY)")
	pf.StringVar(&a.baseURL, "base-url", "", "URL base de la API (env AS2AAS_BASE_URL)")
	pf.StringVar(&a.tenant, "tenant", "", "tenant para recursos con scope de tenant (env AS2AAS_TENANT_ID)")
	pf.StringVar(&a.out, "out", "text", "formato de salida: json|text")
	pf.StringVar(&a.logLevel, "log-level", "", "nivel de log: debug|info|warn|error (env LOG_LEVEL)")

	root.AddCommand(
		partnersCmd(a),
		masterPartnersCmd(a),
		messagesCmd(a),
		tenantsCmd(a),
		webhooksCmd(a),
		utilsCmd(a),
	)
	return root
}

// setup carga la config y el logger. El cliente se arma recién en api().
func (a *app) setup(cmd *cobra.Command) error {
	switch a.out {
	case "json", "text":
	default:
		return fmt.Errorf("--out debe ser json o text, no %q", a.out)
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.apiKey != "" {
		cfg.Client.APIKey = a.apiKey
	}
	if a.baseURL != "" {
		cfg.Client.BaseURL = a.baseURL
	}
	if a.tenant != "" {
		cfg.Client.TenantID = a.tenant
	}
	a.cfg = cfg

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "as2aas"})
	a.log = logger.Named("cli").With(logger.Op(cmd.CommandPath()))
	if cfg.Client.TenantID != "" {
		logger.S().Debugf("tenant scope %s", cfg.Client.TenantID)
	}
	return nil
}

// api devuelve el cliente, armándolo la primera vez.
func (a *app) api() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cc := a.cfg.ClientConfig()
	cc.Logger = a.log
	c, err := client.New(cc)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// print escribe v como JSON indentado o, en modo text, con la función dada.
// Sin función de texto cae a JSON.
func (a *app) print(v any, text func(w *tabwriter.Writer)) error {
	if a.out == "json" || text == nil {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// done imprime una confirmación corta en modo text y v en modo json.
func (a *app) done(v any, format string, args ...any) error {
	if a.out == "json" {
		return a.print(v, nil)
	}
	_, err := fmt.Fprintf(a.stdout, format+"\n", args...)
	return err
}

// describe arma el mensaje de error para stderr.
func describe(err error) string {
	var ae *as2err.AppError
	if !errors.As(err, &ae) {
		return "error: " + err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "error: %s", ae.Message)
	if ae.Code != "" {
		fmt.Fprintf(&b, " (%s)", ae.Code)
	}
	for field, msgs := range ae.Details {
		fmt.Fprintf(&b, "\n  %s: %s", field, strings.Join(msgs, ", "))
	}
	if ae.Kind == as2err.KindRateLimit && ae.RetryAfter > 0 {
		fmt.Fprintf(&b, "\n  retry after %ds", ae.RetryAfter)
	}
	return b.String()
}

// splitCSV parte "1, 2,3" en ["1","2","3"].
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
