package racecheck

import "os"

// ShowHelp prints usage information for the race check tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Coffee Run Race Check
=====================

Drives races through a running Coffee Run service and checks every
compiled ranking: finish orders, tie-breaks, ranks, the loser and the
scripted lane.

Usage:
  go run cmd/race-check/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -races int
        Number of races to run (default 20)
  -min int
        Smallest roster (default 2)
  -max int
        Largest roster (default 10)
  -workers int
        Races driven concurrently (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -race-timeout duration
        How long one race may take to complete (default 1m)
  -poll duration
        Delay between race polls (default 100ms)
  -seed int
        Roster size seed (default: current time)
  -output string
        YAML report file (default: race_check_TIMESTAMP.yaml)
  -verbose
        Log every race
  -help
        Show this help message

Examples:
  # Check with default settings
  go run cmd/race-check/main.go

  # Many small races against a remote service
  go run cmd/race-check/main.go -races 200 -max 3 -workers 16 -url http://localhost:8080
`)
}
