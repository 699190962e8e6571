package main

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"podscribe/internal/asr"
	"podscribe/internal/capture"
	"podscribe/internal/config"
	"podscribe/internal/fetch"
	"podscribe/internal/handlers"
	"podscribe/internal/jobs"
	"podscribe/internal/pipeline"
	"podscribe/internal/version"
)

func main() {
	cfg := config.Load()

	if err := fetch.CheckFFmpeg(); err != nil {
		log.Printf("WARNING: %v (downloads will fail until ffmpeg is installed)", err)
	}

	models := asr.NewLoader(cfg.ModelsDir)
	if cfg.NumThreads > 0 {
		models.NumThreads = cfg.NumThreads
	}
	defer models.Close()

	capturer := capture.New()
	capturer.Timeout = cfg.CaptureTimeout
	fetcher := fetch.New()
	fetcher.Timeout = cfg.DownloadTimeout

	driver := pipeline.New(models)
	driver.Capturer = capturer
	driver.Fetcher = fetcher
	driver.TranscriptsDir = cfg.TranscriptsDir
	driver.AudioDir = cfg.AudioDir

	manager := jobs.NewManager(driver, cfg.MaxJobs)
	manager.TranscriptsDir = cfg.TranscriptsDir

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	handlers.NewTranscribeHandler(manager).Register(e)
	handlers.RegisterStatic(e, cfg.StaticDir)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})

	log.Printf("Starting podscribe v%s on port %s (models: %s, max jobs: %d)",
		version.Version, cfg.Port, cfg.ModelsDir, cfg.MaxJobs)
	if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
