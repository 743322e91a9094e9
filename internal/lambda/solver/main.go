package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/antenna-three/fgo-farming-solver-api/internal/dao/resultdao"
	"github.com/antenna-three/fgo-farming-solver-api/internal/dataset"
	"github.com/antenna-three/fgo-farming-solver-api/internal/di"
	"github.com/antenna-three/fgo-farming-solver-api/internal/solver"
)

type Handler struct {
	store   *dataset.Store
	results *resultdao.DAO
}

func NewHandler(store *dataset.Store, results *resultdao.DAO) *Handler {
	return &Handler{
		store:   store,
		results: results,
	}
}

// loggingMiddleware logs details about each request and response
func loggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logger.WithContext(r.Context())
			r = r.WithContext(ctx)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			zerolog.Ctx(ctx).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status_code", rw.statusCode).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (h *Handler) Routes(logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleSolve)
	return loggingMiddleware(logger)(mux)
}

// handleSolve serves GET /. Without query parameters it returns a
// usage document; with parameters it decodes the request, solves the
// lap plan and records the result.
func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()

	if len(query) == 0 {
		data, err := h.store.Fetch(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, solver.Usage(data.Items, data.Quests))
		return
	}

	params := make(map[string]string, len(query))
	for k := range query {
		params[k] = query.Get(k)
	}

	req, err := solver.ParseRequest(params)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.store.Fetch(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	key := req.Key()
	if err := solver.ValidateItems(req.Items, data.Items, key); err != nil {
		writeError(w, err)
		return
	}

	quests := data.Quests
	if len(req.Quests) > 0 {
		quests = solver.FilterQuests(quests, req.Quests, key)
	}

	questKeys := make([]string, 0, len(quests))
	for _, q := range quests {
		questKeys = append(questKeys, solver.QuestKey(q, key))
	}
	rates := solver.FilterDropRates(data.DropRates, req.Items, questKeys, key)

	plan, err := solver.Solve(req.Objective, req.Items, quests, rates, key)
	if err != nil {
		writeError(w, err)
		return
	}

	result := solver.FormatResult(plan, req, data.Items, data.Quests, key)

	if h.results != nil {
		h.record(ctx, req, params, result)
	}

	writeJSON(w, http.StatusOK, result)
}

// record stores the solved plan. Failures are logged, not surfaced:
// the response is already computed.
func (h *Handler) record(ctx context.Context, req *solver.Request, params map[string]string, result map[string]any) {
	logger := zerolog.Ctx(ctx)

	body, err := json.Marshal(result)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to marshal result for persistence")
		return
	}

	_, err = h.results.Create(ctx, resultdao.CreateInput{
		Objective: string(req.Objective),
		Key:       req.Key(),
		Items:     params["items"],
		Quests:    params["quests"],
		Result:    string(body),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to persist solve result")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var paramErr *solver.ParamError
	if stderrors.As(err, &paramErr) {
		writeJSON(w, http.StatusBadRequest, paramErr)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": err.Error(),
	})
}

func newHandlerFromEnv(ctx context.Context) (*Handler, error) {
	bucket := os.Getenv("BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("BUCKET_NAME environment variable is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := dataset.NewStore(s3.NewFromConfig(cfg), bucket)

	var results *resultdao.DAO
	if table := os.Getenv("TABLE_NAME"); table != "" {
		results = resultdao.New(dynamodb.NewFromConfig(cfg), table)
	}

	return NewHandler(store, results), nil
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "solver").Logger()

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		// Lambda mode
		handler, err := newHandlerFromEnv(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create handler")
			os.Exit(1)
		}

		adapter := httpadapter.New(handler.Routes(logger))
		lambda.Start(adapter.ProxyWithContext)
		return
	}

	// CLI mode
	app := &cli.App{
		Name:  "solver",
		Usage: "Serve the farming solver API locally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "S3 bucket holding the drop dataset",
				EnvVars: []string{"BUCKET_NAME"},
				Value:   "fgodrop",
			},
		},
		Action: func(c *cli.Context) error {
			if err := os.Setenv("BUCKET_NAME", c.String("bucket")); err != nil {
				return err
			}

			handler, err := newHandlerFromEnv(c.Context)
			if err != nil {
				return fmt.Errorf("failed to create handler: %w", err)
			}

			logger.Info().Str("addr", c.String("addr")).Msg("Listening")
			return http.ListenAndServe(c.String("addr"), handler.Routes(logger))
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
