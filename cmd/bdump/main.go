// Package main implements the bdump CLI for manual operations against the braindumpd HTTP server.
package main

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

var (
	// serverURL is the base URL for the braindumpd HTTP server
	serverURL string
	// mode overrides the daemon's extraction mode for one request
	mode string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bdump",
	Short: "CLI for braindumpd HTTP server operations",
	Long: `bdump is a command-line interface for interacting with the braindumpd HTTP server.
It provides commands for extracting tasks from transcripts and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "braindumpd server URL")
	extractCmd.Flags().StringVar(&mode, "mode", "", "extraction mode: llm_first, deterministic_first, llm_only")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(healthCmd)
}

// extractCmd extracts tasks from a transcript file or stdin
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract tasks from a transcript file or stdin",
	Long: `Extract actionable tasks from a brain-dump transcript using the braindumpd server.

Examples:
  # Extract from a file
  bdump extract dump.txt

  # Extract from stdin
  cat dump.txt | bdump extract -

  # Force the deterministic extractor
  bdump extract --mode deterministic_first dump.txt

  # Use a different server
  bdump extract --server http://localhost:8080 dump.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check braindumpd server health",
	Long: `Check the health status of the braindumpd HTTP server.

Examples:
  # Check health
  bdump health

  # Check health on a different server
  bdump health --server http://localhost:8080`,
	RunE: runHealth,
}

// ExtractRequest matches internal/httpapi/server.go's request body
type ExtractRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// ExtractTask is one task in the response
type ExtractTask struct {
	Title           string `json:"title"`
	DueText         string `json:"due_text,omitempty"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
	SegmentIndex    int    `json:"segment_index"`
}

// ExtractResponse matches extraction.Result
type ExtractResponse struct {
	Items      []ExtractTask `json:"items"`
	RawCount   int           `json:"raw_count"`
	FinalCount int           `json:"final_count"`
	Method     string        `json:"method"`
}

// HealthResponse matches internal/httpapi/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runExtract handles the extract command
func runExtract(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	// Read input from file or stdin
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	if len(content) == 0 {
		return fmt.Errorf("no transcript to extract from")
	}

	reqBody := ExtractRequest{
		Text: string(content),
		Mode: mode,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/extract", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 120 * time.Second,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var extractResp ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&extractResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for i, task := range extractResp.Items {
		line := fmt.Sprintf("%d. %s", i+1, task.Title)
		if task.DurationMinutes != nil {
			line += fmt.Sprintf(" (%d min)", *task.DurationMinutes)
		}
		if task.DueText != "" {
			line += fmt.Sprintf(" [due: %s]", task.DueText)
		}
		fmt.Println(line)
	}

	fmt.Fprintf(os.Stderr, "[bdump] %d task(s), method=%s\n", extractResp.FinalCount, extractResp.Method)

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
