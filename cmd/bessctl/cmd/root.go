package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var apiTarget string

var rootCmd = &cobra.Command{
	Use:   "bessctl",
	Short: "Control and inspect a running bessd daemon",
	Long: `bessctl talks to the local HTTP API of a running bessd daemon to
inspect telemetry, adjust control settings and send battery commands.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&apiTarget, "target", "t",
		"http://127.0.0.1:8420", "Address of the bessd local API")
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// getJSON fetches a daemon endpoint and decodes the JSON response.
func getJSON(path string, out any) error {
	resp, err := httpClient.Get(apiTarget + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// postJSON posts a JSON body to a daemon endpoint.
func postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(apiTarget+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// putJSON sends a JSON body with PUT to a daemon endpoint.
func putJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, apiTarget+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("daemon responded %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// printKeyed prints a generic JSON object as aligned key/value lines.
func printKeyed(values map[string]any) {
	for key, val := range values {
		fmt.Printf("%-20s: %v\n", key, val)
	}
}
