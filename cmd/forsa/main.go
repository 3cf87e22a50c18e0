package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/config"
	"github.com/sohaib162/forsa-smart-chatbot/internal/corpus"
	"github.com/sohaib162/forsa-smart-chatbot/internal/db"
	dbRedis "github.com/sohaib162/forsa-smart-chatbot/internal/db/redis"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain"
	"github.com/sohaib162/forsa-smart-chatbot/internal/fusion"
	logpkg "github.com/sohaib162/forsa-smart-chatbot/internal/logger"
	"github.com/sohaib162/forsa-smart-chatbot/internal/metrics"
	"github.com/sohaib162/forsa-smart-chatbot/internal/passages"
	"github.com/sohaib162/forsa-smart-chatbot/internal/query"
	"github.com/sohaib162/forsa-smart-chatbot/internal/rerank"
	"github.com/sohaib162/forsa-smart-chatbot/internal/repository/embcache"
	"github.com/sohaib162/forsa-smart-chatbot/internal/resilience"
	"github.com/sohaib162/forsa-smart-chatbot/internal/retriever/dense"
	"github.com/sohaib162/forsa-smart-chatbot/internal/retriever/rule"
	"github.com/sohaib162/forsa-smart-chatbot/internal/retriever/sparse"
	chiTransport "github.com/sohaib162/forsa-smart-chatbot/internal/transport/chi"
	openaiEmb "github.com/sohaib162/forsa-smart-chatbot/internal/transport/openai"
	embeddinguc "github.com/sohaib162/forsa-smart-chatbot/internal/usecase/embedding"
	healthuc "github.com/sohaib162/forsa-smart-chatbot/internal/usecase/health"
	pipelineuc "github.com/sohaib162/forsa-smart-chatbot/internal/usecase/pipeline"
	"github.com/sohaib162/forsa-smart-chatbot/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting forsa chatbot API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("corpus_path", cfg.Corpus.Path),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Load the corpus; nothing works without it.
	docs, err := corpus.NewLoader(env == "prod", logger).LoadFile(cfg.Corpus.Path)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded", zap.Int("documents", len(docs)))

	// Embedding cache store. Optional: empty addrs means no cache.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer s.Close()

		readyCtx := context.Background()
		if err := s.WaitForReady(readyCtx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Warn("Cache not ready, running without embedding cache", zap.Error(err))
		} else {
			store = s
			logger.Info("Connected to embedding cache")
		}
	}

	exec := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	// Embedders are optional: without a backend the dense layer stays down
	// and the pipeline degrades to sparse retrieval.
	var docEmbedder domain.BatchEmbedder
	var queryEmbedder domain.Embedder
	var embedderHealth domain.HealthChecker
	if cfg.Embedding.BaseURL != "" {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
		embedderHealth = base

		cacheTTL := time.Duration(cfg.Cache.TTLHours) * time.Hour
		docEmbedder = buildEmbedder(base, cfg.Embedding, cfg.Embedding.DocumentInstruction, store, cacheTTL, exec, logger)
		queryEmbedder = buildEmbedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, store, cacheTTL, exec, logger)
		logger.Info("Embedders created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("No embedding backend configured, dense retrieval disabled")
	}

	// Retrieval layers. Zero-valued knobs fall back to each layer's defaults.
	router := rule.New(docs, rule.Config{
		HighScoreThreshold: cfg.Router.HighScoreThreshold,
		DominanceRatio:     cfg.Router.DominanceRatio,
		CandidatePool:      cfg.Router.CandidatePool,
	}, logger)
	sparseIndex := sparse.NewIndex(docs, sparse.Config{
		K1:               cfg.Sparse.K1,
		B:                cfg.Sparse.B,
		KeywordBoost:     cfg.Sparse.KeywordBoost,
		HighScore:        cfg.Sparse.HighScore,
		HighRatio:        cfg.Sparse.HighRatio,
		MediumScore:      cfg.Sparse.MediumScore,
		MediumRatio:      cfg.Sparse.MediumRatio,
		SynonymsPerToken: cfg.Sparse.SynonymsPerToken,
	}, logger)
	denseIndex := dense.NewIndex(docEmbedder, queryEmbedder, dense.Config{
		BatchSize: cfg.Embedding.BatchSize,
	}, logger)

	buildCtx, cancelBuild := context.WithCancel(context.Background())
	defer cancelBuild()
	if docEmbedder != nil {
		// The server starts answering from the sparse layers while the
		// dense index builds in the background.
		go func() {
			if err := denseIndex.Build(buildCtx, docs); err != nil {
				logger.Error("Dense index build failed", zap.Error(err))
				return
			}
			logger.Info("Dense index built")
		}()
	}

	gen := passages.NewGenerator(logger)
	passageIndex := passages.NewIndex(gen.Generate(docs))

	// Cross-encoder reranker. Optional: without it the heuristic runs.
	var reranker rerank.Scorer
	var rerankerHealth domain.HealthChecker
	if cfg.Reranker.BaseURL != "" {
		client := rerank.NewClient(rerank.Config{
			BaseURL: cfg.Reranker.BaseURL,
			Model:   cfg.Reranker.Model,
			Timeout: time.Duration(cfg.Reranker.TimeoutSec) * time.Second,
		}, logger)
		reranker = client
		rerankerHealth = client
	} else {
		logger.Warn("No reranker backend configured, using the lexical heuristic")
	}

	pipeSvc := pipelineuc.New(
		router, sparseIndex, denseIndex,
		fusion.NewFuser(docs, fusion.Config{
			ExactNumericBoost:     cfg.Fusion.ExactNumericBoost,
			ToleranceNumericBoost: cfg.Fusion.ToleranceNumericBoost,
			PriceToleranceDA:      cfg.Fusion.PriceToleranceDA,
			SpeedTolerance:        cfg.Fusion.SpeedTolerance,
			FreeBoost:             cfg.Fusion.FreeBoost,
		}, logger),
		passageIndex,
		query.NewEntityDetector(docs),
		reranker, rerank.NewHeuristicScorer(),
		docs,
		pipelineuc.Config{
			TopK:              cfg.Pipeline.TopK,
			SparseTopK:        cfg.Pipeline.SparseTopK,
			DenseTopK:         cfg.Pipeline.DenseTopK,
			RerankTopN:        cfg.Pipeline.RerankTopN,
			RerankTimeout:     time.Duration(cfg.Pipeline.RerankTimeoutSec) * time.Second,
			DynamicMargin:     cfg.Pipeline.DynamicMargin,
			DynamicMaxResults: cfg.Pipeline.DynamicMaxResults,
			BatchWorkers:      cfg.Pipeline.BatchWorkers,
		},
		logger,
	)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	var embChecker, rerankChecker healthuc.ModelChecker
	if embedderHealth != nil {
		embChecker = embedderHealth
	}
	if rerankerHealth != nil {
		rerankChecker = rerankerHealth
	}
	healthSvc := healthuc.New(cachePinger, embChecker, rerankChecker, denseIndex)

	server := chiTransport.NewServer(pipeSvc, healthSvc, logger)
	handler := server.Router(
		jsonRecoverer(logger),
		chiMiddleware.RequestID,
		wideEventMiddleware(logger),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
		metrics.Middleware(),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancelBuild()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base *openaiEmb.Embedder,
	embCfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	cacheTTL time.Duration,
	exec *resilience.Executor,
	logger *zap.Logger,
) *domain.InstructionEmbedder {
	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).WithTTL(cacheTTL)
	}

	// Instrumented (retries, breaker, metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", embCfg.Model, exec, logger)

	// Instruction prefix goes outermost so the cache key includes it
	return domain.NewInstructionEmbedder(embedder, instruction)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
