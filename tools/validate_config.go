//go:build tools
// +build tools

// Package main provides a configuration validation tool for ferrominer.
// It checks a miner configuration file for correctness and prints the
// resolved values without starting the miner.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"ferrominer/config"
)

func main() {
	configPath := flag.String("config", "", "Path to miner config file (default: search paths)")
	flag.Parse()

	if !validateMinerConfig(*configPath) {
		os.Exit(1)
	}
}

func validateMinerConfig(configPath string) bool {
	fmt.Println("Miner Configuration")
	fmt.Println("-------------------")

	if configPath == "" {
		configPath = findConfigFile("miner-config.yaml")
		if configPath == "" {
			fmt.Println("Status: no config file found (will use defaults)")
			fmt.Println("Search paths:")
			fmt.Println("  - ./miner-config.yaml")
			fmt.Println("  - ~/.ferrominer/miner-config.yaml")
			fmt.Println("  - /etc/ferrominer/miner-config.yaml")
			return true // Not an error - defaults are valid
		}
	}

	fmt.Printf("File: %s\n", configPath)

	cfg, err := config.LoadMinerConfig(configPath)
	if err != nil {
		fmt.Printf("Status: INVALID\n")
		fmt.Printf("Error: %v\n", err)
		return false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Status: INVALID\n")
		fmt.Printf("Error: %v\n", err)
		return false
	}

	fmt.Println("Status: VALID")
	fmt.Println()
	fmt.Println("Loaded Configuration:")
	fmt.Printf("  Daemon Address:       %s\n", cfg.Daemon.Address)
	fmt.Printf("  Retry Interval:       %v\n", cfg.Daemon.RetryInterval)
	fmt.Printf("  Miner Address:        %s\n", cfg.Miner.Address)
	if cfg.Miner.Address == config.DevAddress {
		fmt.Printf("                        (default developer address)\n")
	}
	fmt.Printf("  Worker Name:          %s\n", cfg.Miner.WorkerName)
	fmt.Printf("  Threads:              %d (0 = auto-detect)\n", cfg.Miner.Threads)
	fmt.Printf("  Benchmark Iterations: %d\n", cfg.Benchmark.Iterations)
	fmt.Printf("  Logging:              level=%s format=%s\n", cfg.Logging.Level, cfg.Logging.Format)

	return true
}

func findConfigFile(filename string) string {
	searchPaths := []string{
		filepath.Join(".", filename),
		filepath.Join(os.Getenv("HOME"), ".ferrominer", filename),
		filepath.Join("/etc/ferrominer", filename),
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
