package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL string
	timeout   time.Duration

	// Ask command flags
	collection  string
	historyFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kbquery",
	Short:   "Query the knowledge base connector",
	Version: version,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge base",
	Long: `Ask a question against the knowledge base.

The question is sent to the connector's query endpoint and the answer is
printed to stdout. Prior conversation turns can be supplied from a JSON
file to continue an existing exchange.

Examples:
  # Ask a one-off question
  kbquery ask "What changed in the Q3 maintenance window?"

  # Query a specific collection
  kbquery ask --collection tickets "Who reported the outage?"

  # Continue a conversation
  kbquery ask --history-file chat.json "And when was it resolved?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connector liveness and readiness",
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("KB_CONNECTOR_URL", "http://localhost:9020"), "connector base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "request timeout")

	askCmd.Flags().StringVar(&collection, "collection", "", "collection to query (defaults to the server's default)")
	askCmd.Flags().StringVar(&historyFile, "history-file", "", "JSON file with prior conversation turns")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type queryRequest struct {
	Query      string        `json:"query"`
	Collection string        `json:"collection,omitempty"`
	History    []historyTurn `json:"history,omitempty"`
}

type queryResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	req := queryRequest{
		Query:      args[0],
		Collection: collection,
	}

	if historyFile != "" {
		data, err := os.ReadFile(historyFile)
		if err != nil {
			return fmt.Errorf("read history file: %w", err)
		}
		if err := json.Unmarshal(data, &req.History); err != nil {
			return fmt.Errorf("parse history file: %w", err)
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	url := strings.TrimRight(serverURL, "/") + "/v1/kb/query"

	color.Cyan("Querying %s ...", url)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var out queryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		color.Red("Request failed (status %d): %s", resp.StatusCode, out.Error)
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	fmt.Println(out.Answer)
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	base := strings.TrimRight(serverURL, "/")

	failed := false
	for _, probe := range []string{"/healthz", "/readyz"} {
		resp, err := client.Get(base + probe)
		if err != nil {
			color.Red("%s: %v", probe, err)
			failed = true
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			color.Green("%s: ok", probe)
		} else {
			color.Red("%s: status %d", probe, resp.StatusCode)
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("connector is not healthy")
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
