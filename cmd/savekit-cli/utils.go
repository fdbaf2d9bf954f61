package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/savekit/internal/api"
)

const (
	outputFormatJSON = "json"
	unknownValue     = "Unknown"
)

func setupConnection(cmd *cobra.Command, args []string) error {
	if jwtToken == "" {
		jwtToken = os.Getenv("SAVEKIT_JWT_TOKEN")
	}

	httpClient = &http.Client{
		Timeout: timeout,
	}

	if !strings.HasPrefix(serverAddr, "http://") && !strings.HasPrefix(serverAddr, "https://") {
		serverAddr = "http://" + serverAddr
	}
	return nil
}

// makeHTTPRequest sends the request and returns the body and status code.
// Any status >= 400 is returned as an error alongside the status.
func makeHTTPRequest(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverAddr+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+jwtToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp api.ErrorResponse
		if json.Unmarshal(respBody, &errorResp) == nil && errorResp.Error != "" {
			return nil, resp.StatusCode, fmt.Errorf("HTTP %d (%s): %s", resp.StatusCode, errorResp.Code, errorResp.Error)
		}
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return respBody, resp.StatusCode, nil
}

func outputJSON(data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

func outputSlot(slot api.SlotResponse) error {
	if outputFormat == outputFormatJSON {
		return outputJSON(slot)
	}
	fmt.Printf("Key: %s\n", slot.Key)
	fmt.Printf("Schema Version: %d\n", slot.SchemaVersion)
	if slot.Value != nil {
		value, err := json.MarshalIndent(slot.Value, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format value: %w", err)
		}
		fmt.Printf("Value: %s\n", value)
	}
	return nil
}

func valueOrUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
