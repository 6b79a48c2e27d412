package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/daksh-r/webdriverio/internal/contexttracker"
	"github.com/daksh-r/webdriverio/internal/driver/wsdriver"
	"github.com/daksh-r/webdriverio/internal/history"
	"github.com/daksh-r/webdriverio/internal/hub"
	"github.com/daksh-r/webdriverio/internal/mcpserver"
	"github.com/daksh-r/webdriverio/internal/session"
)

func main() {
	addr := os.Getenv("WDHUB_WS_ADDR")
	if addr == "" {
		addr = ":9321"
	}

	hist := history.NewLog(0)
	trackers := contexttracker.NewRegistry(
		contexttracker.WithObserver(func(s contexttracker.Session, from, to, cause string) {
			if sess, ok := s.(*session.Session); ok {
				hist.Append(sess.ID, history.Entry{From: from, To: to, Cause: cause})
			}
		}),
	)

	h := hub.New(hub.Options{
		CheckOrigin: func(r *http.Request) bool { return true },
		Trackers:    trackers,
		OnDisconnect: func(sess *session.Session) {
			hist.Drop(sess.ID)
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Printf("websocket server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("websocket server error: %v", err)
		}
	}()

	drv := wsdriver.NewClient(h, wsdriver.Options{})

	server := mcpserver.New(drv, h, hist, mcpserver.Options{
		Implementation: &mcp.Implementation{Name: "wdhub", Version: "v1.0.0"},
		Instructions:   "Use driver.sessions to discover connected sessions. Use driver.current_context to read the reconciled context before acting on frames or web views.",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
