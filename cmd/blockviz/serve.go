package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/robert-malhotra/blockvol/internal/preview"
)

func runServe(args []string, stdout io.Writer) error {
	fs := flags("serve", stdout)
	addr := fs.String("addr", "localhost:8080", "listen address")
	poll := fs.Duration("poll", 2*time.Second, "manifest poll interval (0 disables live updates)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one directory, got %d arguments", fs.NArg())
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := preview.New(fs.Arg(0), log)
	srv := &http.Server{Addr: *addr, Handler: s.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *poll > 0 {
		go s.Watch(ctx, *poll)
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Info("serving", "dir", fs.Arg(0), "addr", "http://"+*addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
