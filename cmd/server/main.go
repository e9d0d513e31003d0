// Package main is the entry point for the folder file server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CageChen/folderchat/internal/config"
	mfs "github.com/CageChen/folderchat/internal/fs"
	"github.com/CageChen/folderchat/internal/handler"
	"github.com/CageChen/folderchat/internal/logging"
	"github.com/CageChen/folderchat/internal/watcher"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadServer(args)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	root, err := mfs.NewRoot(cfg.Path)
	if err != nil {
		return err
	}
	lfs := mfs.NewLocalFS(root, mfs.Options{
		MaxFileSize: int64(cfg.MaxFileSize),
		Exclude:     cfg.Exclude,
	})

	logger.Info().
		Str("root", root.Path()).
		Str("config", cfg.GetConfigFilePath()).
		Str("max_file_size", humanize.IBytes(uint64(lfs.MaxFileSize()))).
		Strs("exclude", cfg.Exclude).
		Msg("serving directory")

	var wsHandler *handler.WSHandler
	if cfg.Watch {
		wsHandler = handler.NewWSHandler(logger)
		w, err := watcher.New(lfs, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create file watcher")
		} else {
			w.OnChange(wsHandler.OnFileChange)
			if err := w.Start(); err != nil {
				logger.Warn().Err(err).Msg("failed to start file watcher")
			}
			defer func() { _ = w.Stop() }()
			logger.Info().Msg("file watcher enabled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	dispatcher := handler.NewDispatcher(lfs, root.Name(), logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewRouter(dispatcher, wsHandler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Target directory: %s\n", root.Name())
	fmt.Printf("Serving at http://%s/\n", cfg.Addr())
	fmt.Println("  GET  /api/list_files?path=...  - list files and subdirs (JSON)")
	fmt.Println("  GET  /api/read_file?path=...   - read file content (JSON)")
	fmt.Println("  POST /api/call                 - named operation call")
	fmt.Println("  GET  /list_files               - list files and subdirs (text)")
	fmt.Println("  GET  /read_file?path=...       - read file content (text)")
	if wsHandler != nil {
		fmt.Println("  GET  /api/ws                   - change notifications")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
