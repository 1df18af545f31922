package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/abihf/camshot"
	"github.com/abihf/camshot/config"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
)

var configPath = flag.String("config", "", "config file (default $CAMSHOT_CONFIG or "+config.DefaultPath+")")

func main() {
	flag.Parse()
	if err := serve(); err != nil {
		slog.Error("camshotd failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if *configPath != "" {
		return config.LoadPath(*configPath)
	}
	return config.Load()
}

func serve() error {
	conf := loadConfig()
	if isAlreadyRun(conf.PidFile) {
		return errors.New("already run")
	}

	cam, err := camshot.New(conf)
	if err != nil {
		return errors.Wrap(err, "Can not initialize camera")
	}
	// teardown must release the device
	defer cam.Close()

	// cancelled on shutdown so pending captures give way to Close
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.MkdirAll(filepath.Dir(conf.PidFile), 0755)
	if err := writeLockFile(conf.PidFile); err != nil {
		slog.Warn("Can not write pid file", "path", conf.PidFile, "error", err)
	}
	defer os.Remove(conf.PidFile)

	os.MkdirAll(filepath.Dir(conf.Socket), 0755)
	os.Remove(conf.Socket)

	ln, err := net.Listen("unix", conf.Socket)
	if err != nil {
		return errors.Wrap(err, "Listen error")
	}
	defer ln.Close()

	os.Chmod(conf.Socket, 0666)

	srv := newServer(cam, conf)

	go func() {
		for {
			fd, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("Accept error", "error", err)
				return
			}

			go srv.handle(ctx, fd)
		}
	}()

	if conf.HTTP != "" {
		httpSrv := &http.Server{
			Addr:        conf.HTTP,
			Handler:     srv.router(),
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "error", err)
			}
		}()
		defer httpSrv.Shutdown(context.Background())
		slog.Info("Serving snapshots over HTTP", "addr", conf.HTTP)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	daemon.SdNotify(false, daemon.SdNotifyReady)
	slog.Info("Ready", "socket", conf.Socket)
	sig := <-sigc
	slog.Info("Shutting down", "signal", sig.String())
	cancel()
	daemon.SdNotify(false, daemon.SdNotifyStopping)
	return nil
}

func isAlreadyRun(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	pidStr, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Can not read pid file", "error", err)
		return false
	}
	pid, err := strconv.Atoi(string(pidStr))
	if err != nil {
		slog.Warn("Invalid existing pid file", "error", err)
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}

func writeLockFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(f, "%d", os.Getpid())
	return f.Close()
}
