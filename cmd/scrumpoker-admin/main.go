package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/types"
)

// A very simple CLI tool for inspecting a running scrumpoker server.

var serverAddr string

func main() {
	log.SetFlags(0)

	var cmdStats = &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		Long:  `stats prints the aggregated room, player and card statistics of the server.`,
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			body, err := get("/api/stats")
			if err != nil {
				globals.AppLogger.Error("could not get stats", "error", err)
				os.Exit(1)
			}
			stats := types.AdminStats{}
			if err := json.Unmarshal(body, &stats); err != nil {
				globals.AppLogger.Error("could not unmarshal stats", "error", err)
				os.Exit(1)
			}
			out, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				globals.AppLogger.Error("could not marshal stats", "error", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		},
	}

	var cmdHealth = &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  `health queries the health endpoint of the server.`,
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			body, err := get("/healthz")
			if err != nil {
				globals.AppLogger.Error("server is not healthy", "error", err)
				os.Exit(1)
			}
			fmt.Println(string(body))
		},
	}

	var rootCmd = &cobra.Command{Use: "scrumpoker-admin"}
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "addr", "a", "http://localhost:8000", "base address of the server")
	rootCmd.AddCommand(cmdStats, cmdHealth)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func get(path string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverAddr + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
