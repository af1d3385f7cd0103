// Command sitemapd serves sitemap generation for the storefront: on
// demand it pages catalog entries out of the commerce backend, writes the
// batched sitemap files and the sitemap index, and reports a summary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/JurgenV1993/BetterRetail/pkg/commerce"
	"github.com/JurgenV1993/BetterRetail/pkg/logging"
	"github.com/JurgenV1993/BetterRetail/pkg/sitemap"
)

type server struct {
	logger          zerolog.Logger
	backend         *commerce.Client
	writer          *sitemap.Writer
	cultures        []string
	filePrefix      string
	entriesPerBatch int
	baseURL         string

	// mu serializes generation runs; concurrent triggers get 409.
	mu sync.Mutex
}

type cultureSummary struct {
	Culture string   `json:"culture"`
	Batches int      `json:"batches"`
	Entries int      `json:"entries"`
	Files   []string `json:"files"`
}

type generateResponse struct {
	Cultures []cultureSummary `json:"cultures"`
	Index    string           `json:"index"`
	Duration string           `json:"duration"`
}

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") == "true",
		Output: os.Stderr,
	})

	// Configuration from environment
	port := getEnv("PORT", "8080")
	backendURL := getEnv("BACKEND_URL", "http://localhost:9000")
	scope := getEnv("SCOPE", "global")
	cultures := splitList(getEnv("CULTURES", "en-CA,fr-CA"))
	baseURL := getEnv("SITE_BASE_URL", "https://localhost:"+port)
	outputDir := getEnv("OUTPUT_DIR", "./sitemaps")
	filePrefix := getEnv("FILE_PREFIX", "storefront")
	entriesPerBatch := getEnvInt("ENTRIES_PER_BATCH", 1000)

	backend, err := commerce.New(commerce.DefaultConfig(backendURL, scope))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create backend client")
	}

	writer, err := sitemap.NewWriter(outputDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", outputDir).Msg("Failed to prepare output directory")
	}

	srv := &server{
		logger:          logger,
		backend:         backend,
		writer:          writer,
		cultures:        cultures,
		filePrefix:      filePrefix,
		entriesPerBatch: entriesPerBatch,
		baseURL:         baseURL,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/sitemaps/generate", srv.handleGenerate).Methods(http.MethodPost)

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("backend", backendURL).
		Strs("cultures", cultures).
		Msg("Starting sitemap daemon")

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleGenerate runs one full generation across all configured cultures.
func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.mu.TryLock() {
		http.Error(w, "a generation run is already in progress", http.StatusConflict)
		return
	}
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	response := generateResponse{}
	var allNames []string

	for _, culture := range s.cultures {
		gen, err := sitemap.NewGenerator(sitemap.Config{
			Culture:         culture,
			FilePrefix:      s.filePrefix,
			EntriesPerBatch: s.entriesPerBatch,
			Source:          s.backend.EntrySourceFor(culture),
		})
		if err != nil {
			s.logger.Error().Err(err).Str("culture", culture).Msg("Invalid sitemap configuration")
			http.Error(w, fmt.Sprintf("configure %s: %v", culture, err), http.StatusInternalServerError)
			return
		}

		batches, err := gen.GenerateAll(ctx)
		if err != nil {
			s.logger.Error().Err(err).Str("culture", culture).Msg("Sitemap generation failed")
			http.Error(w, fmt.Sprintf("generate %s: %v", culture, err), http.StatusBadGateway)
			return
		}

		summary := cultureSummary{Culture: culture}
		for _, batch := range batches {
			if _, err := s.writer.WriteBatch(batch); err != nil {
				s.logger.Error().Err(err).Str("file", batch.Name).Msg("Failed to write sitemap file")
				http.Error(w, fmt.Sprintf("write %s: %v", batch.Name, err), http.StatusInternalServerError)
				return
			}
			summary.Batches++
			summary.Entries += len(batch.Entries)
			summary.Files = append(summary.Files, batch.Name)
			allNames = append(allNames, batch.Name)
		}
		response.Cultures = append(response.Cultures, summary)
	}

	if _, err := s.writer.WriteIndex(s.baseURL, allNames); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write sitemap index")
		http.Error(w, fmt.Sprintf("write index: %v", err), http.StatusInternalServerError)
		return
	}
	response.Index = sitemap.IndexFilename
	response.Duration = time.Since(start).String()

	s.logger.Info().
		Int("files", len(allNames)).
		Dur("duration", time.Since(start)).
		Msg("Sitemap generation finished")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
