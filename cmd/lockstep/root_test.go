package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/lockstep"
	"github.com/giantswarm/lockstep/internal/reclaim"
)

// resolve parses args for the named subcommand and loads its settings.
func resolve(t *testing.T, sub string, args ...string) (settings, error) {
	t.Helper()
	root := newRootCommand()
	cmd, _, err := root.Find([]string{sub})
	if err != nil {
		t.Fatalf("find %s: %v", sub, err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	v, err := newViper(cmd)
	if err != nil {
		t.Fatalf("newViper: %v", err)
	}
	return loadSettings(v, sub == "serve")
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := resolve(t, "serve", "--port", "8080")
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if s.Port != 8080 {
		t.Errorf("Port = %d, want 8080", s.Port)
	}
	if s.Host != lockstep.DefaultHost {
		t.Errorf("Host = %q, want %q", s.Host, lockstep.DefaultHost)
	}
	if s.WatchInterval != lockstep.DefaultWatchInterval {
		t.Errorf("WatchInterval = %v, want %v", s.WatchInterval, lockstep.DefaultWatchInterval)
	}
	if s.SettleDelay != lockstep.DefaultSettleDelay {
		t.Errorf("SettleDelay = %v, want %v", s.SettleDelay, lockstep.DefaultSettleDelay)
	}
	if s.LogLevel != slog.LevelInfo || s.LogFormat != "text" {
		t.Errorf("LogLevel = %v, LogFormat = %q, want INFO and text", s.LogLevel, s.LogFormat)
	}
	if s.DBURI != "" {
		t.Errorf("DBURI = %q, want empty", s.DBURI)
	}
}

func TestLoadSettingsEnvironment(t *testing.T) {
	tests := map[string]struct {
		env  map[string]string
		args []string
		want func(settings) bool
	}{
		"prefixed env sets port": {
			env:  map[string]string{"LOCKSTEP_PORT": "9999"},
			want: func(s settings) bool { return s.Port == 9999 },
		},
		"flag wins over env": {
			env:  map[string]string{"LOCKSTEP_PORT": "9999"},
			args: []string{"--port", "7000"},
			want: func(s settings) bool { return s.Port == 7000 },
		},
		"dashes become underscores": {
			env:  map[string]string{"LOCKSTEP_PORT": "9999", "LOCKSTEP_WATCH_INTERVAL": "500ms"},
			want: func(s settings) bool { return s.WatchInterval == 500*time.Millisecond },
		},
		"MONGODB_URI is a fallback": {
			env:  map[string]string{"LOCKSTEP_PORT": "9999", "MONGODB_URI": "mongodb://db:27017", "LOCKSTEP_DB_NAME": "app"},
			want: func(s settings) bool { return s.DBURI == "mongodb://db:27017" && s.DBName == "app" },
		},
		"LOCKSTEP_DB_URI wins over MONGODB_URI": {
			env: map[string]string{
				"LOCKSTEP_PORT":    "9999",
				"LOCKSTEP_DB_URI":  "sqlite:///tmp/app.db",
				"MONGODB_URI":      "mongodb://db:27017",
				"LOCKSTEP_DB_NAME": "app",
			},
			want: func(s settings) bool { return s.DBURI == "sqlite:///tmp/app.db" },
		},
		"log level from env": {
			env:  map[string]string{"LOCKSTEP_PORT": "9999", "LOCKSTEP_LOG_LEVEL": "DEBUG", "LOCKSTEP_LOG_FORMAT": "json"},
			want: func(s settings) bool { return s.LogLevel == slog.LevelDebug && s.LogFormat == "json" },
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			s, err := resolve(t, "serve", tc.args...)
			if err != nil {
				t.Fatalf("loadSettings() error = %v", err)
			}
			if !tc.want(s) {
				t.Errorf("unexpected settings: %+v", s)
			}
		})
	}
}

func TestLoadSettingsReportsEveryError(t *testing.T) {
	_, err := resolve(t, "serve",
		"--port", "0",
		"--parent-pid", "-1",
		"--settle-delay", "0s",
		"--db-uri", "mongodb://db:27017",
		"--log-level", "loud",
		"--log-format", "xml",
	)
	if err == nil {
		t.Fatal("loadSettings() error = nil, want validation errors")
	}

	for _, want := range []string{
		"--port",
		"--parent-pid must not be negative",
		"--settle-delay must be greater than 0",
		"--db-name is required with --db-uri",
		"--log-level must be",
		"--log-format must be text or json",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadSettingsReclaimIgnoresServeFlags(t *testing.T) {
	t.Setenv("LOCKSTEP_WATCH_INTERVAL", "0s")

	s, err := resolve(t, "reclaim", "--port", "9999", "--settle-delay", "10ms")
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if s.Port != 9999 || s.SettleDelay != 10*time.Millisecond {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	tests := map[string]struct {
		format string
		want   string
	}{
		"text": {format: "text", want: "msg=hello"},
		"json": {format: "json", want: `"msg":"hello"`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			newLogger(&buf, settings{LogFormat: tc.format, LogLevel: slog.LevelInfo}).Info("hello")
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("log output %q does not contain %q", buf.String(), tc.want)
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		res  reclaim.Result
		want string
	}{
		"already free": {
			res:  reclaim.Result{Port: 9999, Outcome: reclaim.AlreadyFree},
			want: "port 9999: already_free\n",
		},
		"freed": {
			res:  reclaim.Result{Port: 9999, Outcome: reclaim.Freed, Killed: []int{111}, Vanished: []int{222}},
			want: "port 9999: freed (killed [111], already gone [222])\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printResult(&buf, tc.res)
			if buf.String() != tc.want {
				t.Errorf("printResult() = %q, want %q", buf.String(), tc.want)
			}
		})
	}
}

func TestCheckReleased(t *testing.T) {
	t.Parallel()

	held, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer held.Close()
	port := held.Addr().(*net.TCPAddr).Port

	log := slog.New(slog.DiscardHandler)
	if err := checkReleased(port, log); !errors.Is(err, reclaim.ErrPortStillBound) {
		t.Errorf("checkReleased() on a held port error = %v, want ErrPortStillBound", err)
	}
	if err := checkReleased(freePort(t), log); err != nil {
		t.Errorf("checkReleased() on a free port error = %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func testServeSettings(t *testing.T, port int, dbURI string) settings {
	t.Helper()
	return settings{
		Port:            port,
		Host:            "127.0.0.1",
		DBURI:           dbURI,
		DBName:          "app",
		ParentPID:       os.Getpid(),
		WatchInterval:   50 * time.Millisecond,
		SettleDelay:     10 * time.Millisecond,
		ConfirmTimeout:  100 * time.Millisecond,
		NoPortLock:      true,
		ShutdownTimeout: 5 * time.Second,
		LogFormat:       "text",
	}
}

func TestRunServeFailsWithoutDatabaseURI(t *testing.T) {
	stdin, stdinW := io.Pipe()
	defer stdinW.Close()

	s := testServeSettings(t, freePort(t), "")
	s.DBName = ""
	err := runServe(context.Background(), s, slog.New(slog.DiscardHandler), stdin, io.Discard, func(int) {})
	if !errors.Is(err, lockstep.ErrMissingURI) {
		t.Fatalf("runServe() error = %v, want ErrMissingURI", err)
	}
}

func TestRunServeUntilCancelled(t *testing.T) {
	stdin, stdinW := io.Pipe()
	defer stdinW.Close()

	port := freePort(t)
	s := testServeSettings(t, port, "sqlite://"+filepath.Join(t.TempDir(), "app.db"))
	exited := make(chan int, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServe(ctx, s, slog.New(slog.DiscardHandler), stdin, io.Discard, func(code int) { exited <- code })
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/healthz"
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s never became healthy: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServe() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("runServe() did not return after cancel")
	}
	select {
	case code := <-exited:
		t.Errorf("exit(%d) called, want no exit on cancel", code)
	default:
	}
}
