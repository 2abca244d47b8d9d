package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/vision-kernels-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("vision-kernels-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("vision-kernels-mcp - MCP server for nonlinear diffusion and pose algebra")
			fmt.Println()
			fmt.Println("Usage: vision-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  VISION_MCP_LOG_LEVEL=debug         Enable debug logging")
			fmt.Println("  VISION_MCP_MAX_DIMENSION=<pixels>  Largest image side fed to diffusion (default 1024)")
			fmt.Println("  VISION_MCP_CACHE_SIZE=<count>      Decoded images kept in memory (default 16)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := server.ConfigFromEnv()
	cfg.Version = Version
	if cfg.Debug {
		log.Printf("Vision MCP Server v%s (built %s, commit %s), max dimension %d", Version, BuildTime, GitCommit, cfg.MaxDimension)
	}

	srv := server.NewWithConfig(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
