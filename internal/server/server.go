package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/ironsheep/vision-kernels-mcp/internal/imaging"
)

// Server handles MCP protocol communication
type Server struct {
	cache  *imaging.ImageCache
	config Config
}

// Config holds process-wide settings read once at startup.
type Config struct {
	// Debug enables per-request logging to stderr.
	Debug bool

	// MaxDimension bounds the width and height of images fed to the diffusion
	// tools; larger images are fit down with Lanczos resampling.
	MaxDimension int

	// CacheSize bounds how many decoded images the server keeps.
	CacheSize int

	// Version is reported in the initialize response.
	Version string
}

// DefaultMaxDimension is used when VISION_MCP_MAX_DIMENSION is unset or invalid.
const DefaultMaxDimension = 1024

// DefaultCacheSize is used when VISION_MCP_CACHE_SIZE is unset or invalid.
const DefaultCacheSize = 16

// ConfigFromEnv reads VISION_MCP_LOG_LEVEL, VISION_MCP_MAX_DIMENSION and
// VISION_MCP_CACHE_SIZE.
func ConfigFromEnv() Config {
	cfg := Config{
		Debug:        os.Getenv("VISION_MCP_LOG_LEVEL") == "debug",
		MaxDimension: DefaultMaxDimension,
		CacheSize:    DefaultCacheSize,
		Version:      "dev",
	}
	if v := os.Getenv("VISION_MCP_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			log.Printf("Ignoring invalid VISION_MCP_MAX_DIMENSION=%q", v)
		} else {
			cfg.MaxDimension = n
		}
	}
	if v := os.Getenv("VISION_MCP_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Printf("Ignoring invalid VISION_MCP_CACHE_SIZE=%q", v)
		} else {
			cfg.CacheSize = n
		}
	}
	return cfg
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server configured from the environment.
func New() *Server {
	return NewWithConfig(ConfigFromEnv())
}

// NewWithConfig creates a server with explicit settings.
func NewWithConfig(cfg Config) *Server {
	if cfg.MaxDimension < 2 {
		cfg.MaxDimension = DefaultMaxDimension
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Server{
		cache:  imaging.NewImageCache(cfg.CacheSize),
		config: cfg,
	}
}

// Run serves requests from stdin and writes responses to stdout.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w
// until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Pixel arrays passed to diffusion_step can be large
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}
		if s.config.Debug {
			log.Printf("-> %s (id=%v)", req.Method, req.ID)
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "vision-kernels-mcp",
				"version": s.config.Version,
			},
		},
	}
}

// handleToolsList returns every tool definition.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
