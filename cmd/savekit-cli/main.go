package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/savekit/internal/api"
	"github.com/dreamer-zq/savekit/internal/serializer"
	"github.com/dreamer-zq/savekit/version"
)

var (
	httpClient *http.Client

	// Command line flags
	serverAddr   string
	timeout      time.Duration
	outputFormat string

	// Authentication flags
	jwtToken string
)

var rootCmd = &cobra.Command{
	Use:   "savekit-cli",
	Short: "SaveKit CLI - command line client for a SaveKit node",
	Long: `savekit-cli talks to a SaveKit node over its HTTP API.

Authentication (optional):
  When the node has JWT authentication enabled, provide a token using:
  1. Command line flag: --token="your-jwt-token"
  2. Environment variable: export SAVEKIT_JWT_TOKEN="your-jwt-token"

Examples:
  savekit-cli put player1 '{"name":"Player1","score":100}'
  savekit-cli get player1
  savekit-cli ls slot-
  savekit-cli rm player1

  # Generate a token on the node
  savekit generate-token --config=/path/to/config.yaml`,
	PersistentPreRunE: setupConnection,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "localhost:8080", "Server address (host:port)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")
	rootCmd.PersistentFlags().StringVar(&jwtToken, "token", "", "JWT token for authentication (can also use SAVEKIT_JWT_TOKEN env var)")

	rootCmd.AddCommand(
		createPutCommand(),
		createGetCommand(),
		createExistsCommand(),
		createRemoveCommand(),
		createListCommand(),
		createHealthCommand(),
		version.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx)
}

func createPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <json-value>",
		Short: "Save a JSON value into a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("value is not valid JSON")
			}
			return withTimeout(func(ctx context.Context) error {
				resp, _, err := makeHTTPRequest(ctx, http.MethodPut, api.SlotPath(args[0]), json.RawMessage(args[1]))
				if err != nil {
					return err
				}
				var slot api.SlotResponse
				if err := (serializer.JSON{}).Unmarshal(string(resp), &slot); err != nil {
					return fmt.Errorf("failed to parse response: %w", err)
				}
				return outputSlot(slot)
			})
		},
	}
}

func createGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Load the value stored in a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimeout(func(ctx context.Context) error {
				resp, _, err := makeHTTPRequest(ctx, http.MethodGet, api.SlotPath(args[0]), nil)
				if err != nil {
					return err
				}
				var slot api.SlotResponse
				if err := (serializer.JSON{}).Unmarshal(string(resp), &slot); err != nil {
					return fmt.Errorf("failed to parse response: %w", err)
				}
				return outputSlot(slot)
			})
		},
	}
}

func createExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether a slot holds a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimeout(func(ctx context.Context) error {
				_, status, err := makeHTTPRequest(ctx, http.MethodHead, api.SlotPath(args[0]), nil)
				if err != nil && status != http.StatusNotFound {
					return err
				}
				exists := status == http.StatusOK
				if outputFormat == outputFormatJSON {
					return outputJSON(map[string]any{"key": args[0], "exists": exists})
				}
				fmt.Println(exists)
				return nil
			})
		},
	}
}

func createRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>",
		Aliases: []string{"delete"},
		Short:   "Delete a slot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimeout(func(ctx context.Context) error {
				_, _, err := makeHTTPRequest(ctx, http.MethodDelete, api.SlotPath(args[0]), nil)
				if err != nil {
					return err
				}
				if outputFormat != outputFormatJSON {
					fmt.Printf("Deleted %s\n", args[0])
				}
				return nil
			})
		},
	}
}

func createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List slot keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return withTimeout(func(ctx context.Context) error {
				resp, _, err := makeHTTPRequest(ctx, http.MethodGet, api.ListPath(prefix), nil)
				if err != nil {
					return err
				}
				var list api.ListResponse
				if err := json.Unmarshal(resp, &list); err != nil {
					return fmt.Errorf("failed to parse response: %w", err)
				}
				if outputFormat == outputFormatJSON {
					return outputJSON(list)
				}
				for _, k := range list.Keys {
					fmt.Println(k)
				}
				return nil
			})
		},
	}
}

func createHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check node health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimeout(func(ctx context.Context) error {
				resp, _, err := makeHTTPRequest(ctx, http.MethodGet, api.HealthPath, nil)
				if err != nil {
					return err
				}
				var health api.HealthResponse
				if err := json.Unmarshal(resp, &health); err != nil {
					return fmt.Errorf("failed to parse response: %w", err)
				}
				if outputFormat == outputFormatJSON {
					return outputJSON(health)
				}
				fmt.Printf("Status: %s\n", health.Status)
				fmt.Printf("Version: %s\n", valueOrUnknown(health.Version))
				fmt.Printf("Schema Version: %d\n", health.SchemaVersion)
				return nil
			})
		},
	}
}
