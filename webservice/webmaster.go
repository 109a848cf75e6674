package webservice

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grandcat/zeroconf"
	"github.com/klauspost/compress/zstd"

	"gifscreen/config"
	"gifscreen/display"
)

type WebMaster struct {
	config   *config.Config
	store    *display.Store
	router   *gin.Engine
	server   *http.Server
	hub      *Hub
	zstd     *zstd.Encoder
	staticFS fs.FS

	mdnsMu sync.Mutex
	mdns   *zeroconf.Server
}

func New(cfg *config.Config, store *display.Store, staticFS fs.FS) *WebMaster {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		// Only invalid options make NewWriter fail.
		panic(err)
	}
	wm := &WebMaster{
		config:   cfg,
		store:    store,
		hub:      NewHub(),
		zstd:     enc,
		staticFS: staticFS,
	}
	store.Subscribe(wm.hub.Broadcast)
	store.Subscribe(wm.updateTXT)
	wm.setRouter()
	wm.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           wm.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return wm
}

func (wm *WebMaster) setRouter() {
	if wm.config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	if wm.staticFS != nil {
		r.GET("/", func(c *gin.Context) {
			c.FileFromFS("/", http.FS(wm.staticFS))
		})
	}
	r.POST("/upload", wm.handleUpload)
	r.GET("/set_mode/:mode", wm.handleSetMode)
	r.GET("/status", wm.handleStatus)
	r.GET("/download", wm.handleDownload)
	r.GET("/preview", wm.handlePreview)
	r.GET("/ws", wm.handleWS)

	wm.router = r
}

// Handler exposes the router, mainly for tests.
func (wm *WebMaster) Handler() http.Handler {
	return wm.router
}

// Serve blocks until the server is closed.
func (wm *WebMaster) Serve() error {
	if wm.config.Discovery.Enabled {
		if err := wm.Advertise(); err != nil {
			slog.Warn("mdns advertisement failed", "error", err)
		}
	}
	slog.Info("http server listening", "addr", wm.config.Listen)
	if err := wm.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (wm *WebMaster) Close() {
	wm.shutdownMDNS()
	wm.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wm.server.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	wm.zstd.Close()
}
