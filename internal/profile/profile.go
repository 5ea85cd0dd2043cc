package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (zai, deepseek, openai, siliconflow, dashscope, ollama) use the same config
	LLMProvider string // Provider identifier
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: glm-4.7, deepseek-chat, gpt-4o, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)
	LLMRPS      int    // Client-side generation rate limit, requests per second (default: 2)

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Retrieval configuration
	RAGTopK int // nearest-neighbor count fed into answer grounding (default: 5)

	// Vector index backend: "store" (database-backed) or "memory" (embedded, non-persistent)
	VectorBackend string

	// ReconcileInterval is the period in seconds between index reconciliation
	// sweeps. 0 disables the sweep.
	ReconcileInterval int

	// Server configuration
	Mode        string
	Addr        string
	Port        int
	UNIXSock    string
	Data        string
	Driver      string
	DSN         string
	InstanceURL string
	Version     string

	AIEnabled bool
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-5.2",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("NOTESAGE_AI_LLM_PROVIDER", "zai")
	p.LLMAPIKey = getEnvOrDefault("NOTESAGE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("NOTESAGE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("NOTESAGE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("NOTESAGE_AI_LLM_TIMEOUT_SECONDS", 120)
	p.LLMRPS = getEnvOrDefaultInt("NOTESAGE_AI_LLM_RPS", 2)

	// AI is enabled if API key is configured
	p.AIEnabled = p.LLMAPIKey != ""

	// Validate and apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("unknown LLM provider, using default: zai", "provider", p.LLMProvider)
			p.LLMProvider = "zai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("NOTESAGE_AI_EMBEDDING_PROVIDER", "siliconflow")
	p.EmbeddingModel = getEnvOrDefault("NOTESAGE_AI_EMBEDDING_MODEL", "BAAI/bge-m3")
	p.EmbeddingAPIKey = getEnvOrDefault("NOTESAGE_AI_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("NOTESAGE_AI_EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1")
	p.EmbeddingDimensions = getEnvOrDefaultInt("NOTESAGE_AI_EMBEDDING_DIMENSIONS", 1024)

	// Retrieval configuration
	p.RAGTopK = getEnvOrDefaultInt("NOTESAGE_AI_RAG_TOPK", 5)
	if p.RAGTopK < 1 {
		p.RAGTopK = 1
	}
	if p.RAGTopK > 20 {
		p.RAGTopK = 20
	}

	p.VectorBackend = getEnvOrDefault("NOTESAGE_VECTOR_BACKEND", "store")
	if p.VectorBackend != "store" && p.VectorBackend != "memory" {
		slog.Warn("unknown vector backend, using default: store", "backend", p.VectorBackend)
		p.VectorBackend = "store"
	}

	p.ReconcileInterval = getEnvOrDefaultInt("NOTESAGE_RECONCILE_INTERVAL_SECONDS", 0)
	if p.ReconcileInterval < 0 {
		p.ReconcileInterval = 0
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "notesage")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/notesage"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("notesage_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile) + "?_loc=auto"
	} else if p.Driver == "sqlite" && p.DSN != "" && !strings.Contains(p.DSN, "_loc=") {
		separator := "?"
		if strings.Contains(p.DSN, "?") {
			separator = "&"
		}
		p.DSN += separator + "_loc=auto"
	}

	return nil
}
