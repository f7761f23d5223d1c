package cli

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/netmock/pkg/cli/internal/output"
	"github.com/getmockd/netmock/pkg/config"
	"github.com/getmockd/netmock/pkg/intercept"
	"github.com/getmockd/netmock/pkg/logging"
	"github.com/getmockd/netmock/pkg/mock"
	"github.com/getmockd/netmock/pkg/passthrough"
	"github.com/getmockd/netmock/pkg/registry"
	"github.com/getmockd/netmock/pkg/requestlog"
)

var (
	resolveConfigs      []string
	resolveHeaders      []string
	resolveData         string
	resolveAllowNetwork bool
)

// ResolveOutput is the JSON output of resolve.
type ResolveOutput struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	EndpointID string            `json:"endpointId,omitempty"`
	CallCount  int               `json:"callCount"`
	DurationMs int64             `json:"durationMs"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve METHOD URL",
	Short: "Resolve a request against the mocks of settings files",
	Long: `Run a single request through the static mocks of one or more settings
files and print the response. Nothing is sent over the network unless
--allow-network is given, in which case the files' passthrough rules apply.`,
	Example: `  netmock resolve -c netmock.yaml GET https://api.example.com/users/1
  netmock resolve -c 'mocks/**/*.yaml' -H 'Content-Type: application/json' \
    -d '{"total": 250}' POST https://api.example.com/orders`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadGlob(resolveConfigs...)
	if err != nil {
		return err
	}

	logCfg := settings.LoggingConfig(cmd.ErrOrStderr())
	if logLevel != "" {
		logCfg.Level = logging.ParseLevel(logLevel)
	}
	logger := logging.New(logCfg)

	reg := registry.New(registry.WithLogger(logger))
	if _, err := settings.Apply(reg); err != nil {
		return err
	}

	var allow *passthrough.Allowlist
	if resolveAllowNetwork {
		if allow, err = settings.Allowlist(); err != nil {
			return err
		}
	}

	headers, err := parseHeaders(resolveHeaders)
	if err != nil {
		return err
	}
	desc := &mock.Request{Method: args[0], URL: args[1], Headers: headers}
	if resolveData != "" {
		desc.Body = resolveData
	}

	store := requestlog.NewMemoryStore(1)
	it := intercept.New(intercept.Config{
		Registry:   reg,
		Allowlist:  allow,
		RequestLog: store,
		Logger:     logger,
	})

	c, err := it.Request(desc, nil)
	if err != nil {
		return err
	}
	proj, err := c.Wait(cmd.Context())
	if err != nil {
		return err
	}

	out := ResolveOutput{
		Status:     proj.StatusCode,
		StatusText: proj.Status,
		Headers:    make(map[string]string, len(proj.Header)),
		Body:       string(proj.Body),
	}
	for k := range proj.Header {
		out.Headers[k] = proj.Header.Get(k)
	}
	if entries := store.List(nil); len(entries) > 0 {
		out.EndpointID = entries[0].EndpointID
		out.CallCount = entries[0].CallCount
		out.DurationMs = entries[0].DurationMs
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		return output.JSON(w, out)
	}

	fmt.Fprintf(w, "%s %d %s\n", proj.Proto, out.Status, out.StatusText)
	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, out.Headers[k])
	}
	fmt.Fprintln(w)
	if out.Body != "" {
		fmt.Fprintln(w, out.Body)
	}
	return nil
}

func parseHeaders(raw []string) (map[string]any, error) {
	headers := make(map[string]any, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", h)
		}
		headers[http.CanonicalHeaderKey(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return headers, nil
}

func init() {
	resolveCmd.Flags().StringArrayVarP(&resolveConfigs, "config", "c", nil, "Settings file or glob (repeatable)")
	resolveCmd.Flags().StringArrayVarP(&resolveHeaders, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	resolveCmd.Flags().StringVarP(&resolveData, "data", "d", "", "Request body")
	resolveCmd.Flags().BoolVar(&resolveAllowNetwork, "allow-network", false, "Apply the passthrough rules of the settings")
	_ = resolveCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(resolveCmd)
}
