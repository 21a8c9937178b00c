// Command filterd exposes the Bloom filter, Cuckoo filter, and concurrent
// skip list over a small HTTP API, wired to the config/logging/metrics
// stack the rest of this module provides.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/filterkit/algorithm/structures"
	"github.com/wyfcoding/filterkit/config"
	"github.com/wyfcoding/filterkit/logging"
	"github.com/wyfcoding/filterkit/metrics"
	"github.com/wyfcoding/filterkit/server"
	"github.com/wyfcoding/filterkit/xerrors"
)

type app struct {
	bloom   *structures.BloomFilter[string]
	cuckoo  *structures.CuckooFilter[string]
	skip    *structures.SkipList[string, string]
	metrics *metrics.Metrics
	log     *logging.Logger
}

func main() {
	configPath := flag.String("config", "config.toml", "path to config.toml")
	flag.Parse()

	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewFromConfig(logging.Config{
		Service:    cfg.Server.Name,
		Module:     "filterd",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Remote: logging.RemoteConfig{
			Enabled:       cfg.Log.Remote.Enabled,
			Endpoint:      cfg.Log.Remote.Endpoint,
			AuthToken:     cfg.Log.Remote.AuthToken,
			Timeout:       cfg.Log.Remote.Timeout,
			BatchSize:     cfg.Log.Remote.BatchSize,
			BufferSize:    cfg.Log.Remote.BufferSize,
			FlushInterval: cfg.Log.Remote.FlushInterval,
			DropOnFull:    cfg.Log.Remote.DropOnFull,
		},
	})
	defer logger.Close()
	config.PrintWithMask(&cfg)

	bloom, err := structures.NewBloomFilter[string](cfg.Filters.Bloom.ExpectedItems, cfg.Filters.Bloom.FalsePositiveRate)
	if err != nil {
		logger.ErrorContext(context.Background(), "failed to build bloom filter", "error", err)
		os.Exit(1)
	}
	cuckoo, err := structures.NewCuckooFilter[string](cfg.Filters.Cuckoo.Capacity, cfg.Filters.Cuckoo.FingerprintSize)
	if err != nil {
		logger.ErrorContext(context.Background(), "failed to build cuckoo filter", "error", err)
		os.Exit(1)
	}
	skip := structures.NewSkipList[string, string](cfg.Filters.SkipList.MaxElements)

	m := metrics.NewMetrics(cfg.Server.Name)
	stopMetrics := func() func() {
		if !cfg.Metrics.Enabled {
			return func() {}
		}
		return m.ExposeHttp(cfg.Metrics.Port)
	}()
	defer stopMetrics()

	a := &app{bloom: bloom, cuckoo: cuckoo, skip: skip, metrics: m, log: logger}

	engine := server.NewDefaultGinEngine(gin.Recovery())
	a.routes(engine)

	addr := cfg.Server.HTTP.Addr
	if addr == "" {
		addr = ":" + strconv.Itoa(cfg.Server.HTTP.Port)
	}
	httpServer := server.NewGinServer(engine, addr, logger.Logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := httpServer.Start(ctx); err != nil {
		logger.ErrorContext(context.Background(), "http server exited with error", "error", err)
		os.Exit(1)
	}
}

func (a *app) routes(engine *gin.Engine) {
	bloomGroup := engine.Group("/bloom")
	bloomGroup.POST("/add", a.bloomAdd)
	bloomGroup.GET("/contains", a.bloomContains)

	cuckooGroup := engine.Group("/cuckoo")
	cuckooGroup.POST("/add", a.cuckooAdd)
	cuckooGroup.GET("/contains", a.cuckooContains)
	cuckooGroup.DELETE("", a.cuckooDelete)

	skipGroup := engine.Group("/skiplist")
	skipGroup.POST("", a.skipInsert)
	skipGroup.GET("/:key", a.skipGet)
	skipGroup.DELETE("/:key", a.skipDelete)
	skipGroup.GET("/range", a.skipRange)
}

type itemRequest struct {
	Item string `json:"item" binding:"required"`
}

func (a *app) bloomAdd(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, xerrors.InvalidArg(err.Error()))
		return
	}
	a.bloom.Add(req.Item)
	a.metrics.BloomAddTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"added": true})
}

func (a *app) bloomContains(c *gin.Context) {
	item := c.Query("item")
	a.metrics.BloomContainsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"maybe_present": a.bloom.Contains(item)})
}

func (a *app) cuckooAdd(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, xerrors.InvalidArg(err.Error()))
		return
	}
	ok, kicks := a.cuckoo.AddWithKicks(req.Item)
	result := "success"
	if !ok {
		result = "full"
	}
	a.metrics.CuckooInsertTotal.WithLabelValues(result).Inc()
	a.metrics.CuckooKicksTotal.Add(float64(kicks))
	a.metrics.CuckooLoadFactor.Set(float64(a.cuckoo.Count()) / float64(a.cuckoo.Capacity()))
	if !ok {
		writeError(c, xerrors.New(xerrors.ErrLimitExceeded, 409000, "cuckoo filter is full", "", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": true})
}

func (a *app) cuckooContains(c *gin.Context) {
	item := c.Query("item")
	c.JSON(http.StatusOK, gin.H{"present": a.cuckoo.Contains(item)})
}

func (a *app) cuckooDelete(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, xerrors.InvalidArg(err.Error()))
		return
	}
	ok := a.cuckoo.Delete(req.Item)
	result := "success"
	if !ok {
		result = "absent"
	}
	a.metrics.CuckooDeleteTotal.WithLabelValues(result).Inc()
	c.JSON(http.StatusOK, gin.H{"deleted": ok})
}

type kvRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

func (a *app) skipInsert(c *gin.Context) {
	var req kvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, xerrors.InvalidArg(err.Error()))
		return
	}
	defer a.timeSkipListOp("add")()
	inserted := a.skip.Insert(req.Key, req.Value)
	a.metrics.SkipListSize.Set(float64(a.skip.Size()))
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

func (a *app) skipGet(c *gin.Context) {
	defer a.timeSkipListOp("search")()
	key := c.Param("key")
	value, ok := a.skip.Search(key)
	if !ok {
		writeError(c, xerrors.NotFound("key not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (a *app) skipDelete(c *gin.Context) {
	defer a.timeSkipListOp("remove")()
	key := c.Param("key")
	removed := a.skip.Remove(key)
	a.metrics.SkipListSize.Set(float64(a.skip.Size()))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (a *app) skipRange(c *gin.Context) {
	defer a.timeSkipListOp("range")()
	lo := c.Query("lo")
	hi := c.Query("hi")
	c.JSON(http.StatusOK, gin.H{"keys": a.skip.Range(lo, hi)})
}

// timeSkipListOp starts a timer for a skip list operation labeled op;
// the caller defers the returned closure to record the observation.
func (a *app) timeSkipListOp(op string) func() {
	start := time.Now()
	return func() {
		a.metrics.SkipListOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func writeError(c *gin.Context, err *xerrors.Error) {
	c.JSON(err.HTTPStatus(), gin.H{"error": err.Message, "code": err.Code})
}
