package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // Postgres driver
	"google.golang.org/grpc"

	"github.com/dssahayak/search/internal/config"
	"github.com/dssahayak/search/internal/dssearch/cache"
	"github.com/dssahayak/search/internal/dssearch/crawler"
	"github.com/dssahayak/search/internal/dssearch/evidence"
	"github.com/dssahayak/search/internal/dssearch/orchestrator"
	"github.com/dssahayak/search/internal/dssearch/policy"
	"github.com/dssahayak/search/internal/dssearch/querygen"
	"github.com/dssahayak/search/internal/dssearch/ranker"
	"github.com/dssahayak/search/internal/dssearch/searchapi"
	"github.com/dssahayak/search/internal/dssearch/storage"
	"github.com/dssahayak/search/internal/dssearch/trust"
	"github.com/dssahayak/search/pb"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}

	log.Println("🔍 Starting DS-Search (Digital Sahayak Search)...")

	cfg := config.Get()

	// 1. Trust Registry, optionally Postgres-backed.
	var trustStore trust.Store
	if cfg.Storage.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		trustStore = trust.NewPostgresStore(db)
	}
	registry := trust.New(trustStore)

	// 2. Cache, optionally Redis-backed.
	var redisClient cache.RedisClient
	if cfg.Storage.RedisAddr != "" {
		redisClient = storage.NewRedisAdapter(cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
	}
	ch := cache.New(cfg.Cache.Dir, cfg.Cache.MemoryMax, time.Duration(cfg.Cache.DefaultTTLHours)*time.Hour, redisClient)

	// 3. Policy Engine: rate limiter (optionally distributed) + internal index.
	var counter policy.DistributedCounter
	if cfg.Storage.RedisAddr != "" {
		counter = storage.NewRedisAdapter(cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
	}
	rl := policy.NewRateLimiter(policy.RateLimitConfig{
		MaxPerDay:    cfg.Policy.MaxPerUserPerDay,
		MaxPerMinute: cfg.Policy.MaxPerUserPerMinute,
	}, counter)

	var index policy.InternalIndex
	if cfg.Catalog.SupabaseURL != "" && cfg.Catalog.SupabaseKey != "" {
		idx, err := storage.NewIndexClient()
		if err != nil {
			log.Printf("supabase index client unavailable, internal-hit signal disabled: %v", err)
		} else {
			index = idx
		}
	}
	engine := policy.NewEngine(registry, rl, index, cfg.Policy.SearchScoreThreshold)

	// 4. Query Generator, Crawler, Paid API Adapter, Ranker, Evidence Extractor.
	qg := querygen.New(time.Now().Year())

	crw := crawler.New(crawler.Config{
		Timeout:         time.Duration(cfg.Crawler.TimeoutSec) * time.Second,
		UserAgent:       cfg.Crawler.UserAgent,
		MaxContentBytes: int64(cfg.Crawler.MaxContentBytes),
	}, registry)

	apiMgr, err := searchapi.NewManager(searchapi.Config{
		Enabled:    cfg.PaidAPI.Enabled,
		Provider:   cfg.PaidAPI.Provider,
		DailyLimit: cfg.PaidAPI.DailyLimit,
		GoogleKey:  cfg.PaidAPI.GoogleAPIKey,
		GoogleCX:   cfg.PaidAPI.GoogleCX,
		BingKey:    cfg.PaidAPI.BingAPIKey,
		SerpAPIKey: cfg.PaidAPI.SerpAPIKey,
	})
	if err != nil {
		log.Fatalf("search api manager: %v", err)
	}

	rk := ranker.New(registry)
	ev := evidence.New()

	// 4b. Optional outcome-event publish and durable log backend.
	var events orchestrator.EventPublisher
	if cfg.PubSub.Enabled && cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicID != "" {
		pub, err := orchestrator.NewPubSubPublisher(cfg.PubSub.ProjectID, cfg.PubSub.TopicID)
		if err != nil {
			log.Printf("pubsub publisher unavailable, outcome events disabled: %v", err)
		} else {
			events = pub
		}
	}

	var logStore orchestrator.LogStore
	if cfg.Storage.Spanner.ProjectID != "" && cfg.Storage.Spanner.InstanceID != "" && cfg.Storage.Spanner.DatabaseID != "" {
		ls, err := storage.NewSpannerLogStore(context.Background(),
			cfg.Storage.Spanner.ProjectID, cfg.Storage.Spanner.InstanceID, cfg.Storage.Spanner.DatabaseID)
		if err != nil {
			log.Printf("spanner log store unavailable, falling back to in-memory log: %v", err)
		} else {
			logStore = ls
		}
	}

	// 5. Orchestrator wiring every collaborator above.
	orch := orchestrator.New(orchestrator.Config{
		Policy:      engine,
		QueryGen:    qg,
		Crawler:     crw,
		SearchAPI:   apiMgr,
		Ranker:      rk,
		Evidence:    ev,
		Cache:       ch,
		RateLimiter: rl,
		Events:      events,
		LogStore:    logStore,
	})

	metrics := orchestrator.NewMetrics()

	// 6. gRPC server, optionally authenticated by SPIFFE mTLS.
	grpcPort, err := strconv.Atoi(cfg.Server.GRPCPort)
	if err != nil {
		log.Fatalf("invalid GRPC_PORT %q: %v", cfg.Server.GRPCPort, err)
	}
	var grpcOpts []grpc.ServerOption
	if cfg.Federation.TrustDomain != "" && cfg.Federation.SocketPath != "" {
		opt, closeSource, err := orchestrator.MTLSServerOption(cfg.Federation.SocketPath)
		if err != nil {
			log.Printf("SPIFFE mTLS unavailable, gRPC server running insecure: %v", err)
		} else {
			grpcOpts = append(grpcOpts, opt)
			defer closeSource()
		}
	}
	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
		if err != nil {
			log.Fatalf("gRPC listen failed: %v", err)
		}
		grpcServer := grpc.NewServer(grpcOpts...)
		pb.RegisterDSSearchServiceServer(grpcServer, orchestrator.NewGRPCServer(orch))
		log.Printf("🔍 DS-Search gRPC listening on :%d", grpcPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// 7. HTTP/REST + admin WebSocket server (blocks).
	httpPort, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Fatalf("invalid PORT %q: %v", cfg.Server.Port, err)
	}
	httpServer := orchestrator.NewServer(orch, registry, metrics)

	cleanupInterval := time.Duration(cfg.Cache.CleanupMinutes) * time.Minute
	if cfg.CloudTasks.Enabled && cfg.CloudTasks.ProjectID != "" {
		targetURL := fmt.Sprintf("http://localhost:%d/api/admin/cache/cleanup", httpPort)
		sched, err := orchestrator.NewCleanupScheduler(cfg.CloudTasks.ProjectID, cfg.CloudTasks.LocationID, cfg.CloudTasks.QueueID, targetURL)
		if err != nil {
			log.Printf("cloud tasks scheduler unavailable, falling back to in-process ticker: %v", err)
			go runCleanupTicker(ch, cleanupInterval)
		} else {
			httpServer.WithCloudTasksCleanup(ch, sched, cleanupInterval)
		}
	} else {
		go runCleanupTicker(ch, cleanupInterval)
	}

	if err := httpServer.Start(httpPort); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// runCleanupTicker sweeps the cache's expired entries on a fixed interval,
// the teacher's rate_limiter.go cleanup() idiom generalised to the cache.
func runCleanupTicker(ch *cache.Cache, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ch.CleanupExpired()
	}
}
