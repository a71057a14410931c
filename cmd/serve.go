package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/docgen"
	"github.com/company-k/purchasing-cli/internal/pipeline"
	"github.com/company-k/purchasing-cli/internal/retrieval"
)

// maxUploadBytes caps snapshot and corpus uploads.
const maxUploadBytes = 32 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key"},
		AllowCredentials: false,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/group", handleGroup(env))
		r.Post("/run", handleRun(env))
		r.Post("/run/stream", handleRunStream(env))
		r.Post("/ingest/{collection}", handleIngest(env))
		r.Get("/output", handleOutputList())
		r.Get("/output/{filename}", handleOutputDownload())
	})

	return r
}

func corsOrigins() []string {
	if len(cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.Server.CORSOrigins
}

// apiKeyMiddleware guards /api/* with the configured key. An empty
// configured key leaves the API open, which is only sensible locally.
func apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Server.APIKey != "" && r.Header.Get("X-API-Key") != cfg.Server.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// snapshotUpload reads the multipart "file" part of a snapshot upload.
func snapshotUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", eris.Wrap(err, "parse multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", eris.New(`missing "file" form field`)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", eris.Wrap(err, "read upload")
	}
	return content, header.Filename, nil
}

func handleGroup(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, filename, err := snapshotUpload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		groups, err := env.Pipeline.Group(content, filename)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
	}
}

func handleRun(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, filename, err := snapshotUpload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		result, err := env.Pipeline.Run(r.Context(), content, pipeline.RunOptions{
			Filename: filename,
			InMemory: r.URL.Query().Get("in_memory") == "true",
		}, nil)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// handleRunStream serves the run's progress events as NDJSON, one object
// per line, ending with exactly one terminal event. The run is detached
// from the request context and the channel is always drained, so a client
// disconnect never abandons a half-finished run.
func handleRunStream(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, filename, err := snapshotUpload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		events := env.Pipeline.Stream(context.WithoutCancel(r.Context()), content, pipeline.RunOptions{
			Filename: filename,
			InMemory: r.URL.Query().Get("in_memory") == "true",
		})

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)

		enc := json.NewEncoder(w)
		writable := true
		for event := range events {
			if !writable {
				continue
			}
			if err := enc.Encode(event); err != nil {
				zap.L().Warn("stream client gone, draining run to completion", zap.Error(err))
				writable = false
				continue
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func handleIngest(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		if !retrieval.ValidCollection(collection) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown collection " + collection})
			return
		}

		content, filename, err := snapshotUpload(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		chunks, err := env.Provider.Ingest(r.Context(), collection, []retrieval.Document{{
			Content:  string(content),
			Metadata: map[string]string{"source": filename},
		}})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"collection": collection, "chunks": chunks})
	}
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleOutputList reports the artifacts available for download from a
// materialized run.
func handleOutputList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := docgen.ListArtifacts(cfg.Output.Dir)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if files == nil {
			files = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": files})
	}
}

// handleOutputDownload serves one generated artifact. The filename is
// validated against the artifact naming pattern before any disk access.
func handleOutputDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		path, err := docgen.ArtifactPath(cfg.Output.Dir, filename)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such artifact: " + filename})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
