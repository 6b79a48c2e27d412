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

	"github.com/daksh-r/webdriverio/internal/admin"
	"github.com/daksh-r/webdriverio/internal/clients"
	"github.com/daksh-r/webdriverio/internal/config"
	"github.com/daksh-r/webdriverio/internal/contexttracker"
	"github.com/daksh-r/webdriverio/internal/driver/wsdriver"
	"github.com/daksh-r/webdriverio/internal/history"
	"github.com/daksh-r/webdriverio/internal/httpx"
	"github.com/daksh-r/webdriverio/internal/hub"
	"github.com/daksh-r/webdriverio/internal/mcpserver"
	"github.com/daksh-r/webdriverio/internal/session"
)

func main() {
	settings, err := config.LoadOrCreate("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("loaded config: %s", settings.Path)

	hist := history.NewLog(0)
	trackers := contexttracker.NewRegistry(
		contexttracker.WithObserver(func(s contexttracker.Session, from, to, cause string) {
			sess, ok := s.(*session.Session)
			if !ok {
				return
			}
			hist.Append(sess.ID, history.Entry{From: from, To: to, Cause: cause})
			log.Printf("session %s context %q -> %q (%s)", sess.ID, from, to, cause)
		}),
	)

	h := hub.New(hub.Options{
		CheckOrigin: func(r *http.Request) bool { return true },
		Trackers:    trackers,
		OnDisconnect: func(sess *session.Session) {
			hist.Drop(sess.ID)
		},
	})

	drv := wsdriver.NewClient(h, wsdriver.Options{Timeout: settings.CommandTimeout})

	server := mcpserver.New(drv, h, hist, mcpserver.Options{
		Implementation: &mcp.Implementation{Name: "wdhub", Version: "v1.0.0"},
		Instructions:   "Use driver.sessions to discover connected sessions. Use driver.current_context to read the reconciled context before acting on frames or web views.",
	})
	mcpServer := server.MCPServer()

	sseHandler := mcp.NewSSEHandler(func(_ *http.Request) *mcp.Server { return mcpServer }, nil)
	streamHandler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mcpServer }, nil)

	registry := clients.NewRegistry()
	adminHandlers := &admin.Handlers{
		StartedAt:  time.Now(),
		Clients:    registry,
		Hub:        h,
		History:    hist,
		MaxIdle:    settings.ClientMaxIdle,
		ConfigPath: settings.Path,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", http.HandlerFunc(h.HandleWS))
	mux.Handle("/mcp/sse", httpx.RequireToken(settings.MCPToken)(trackSSE(registry, sseHandler)))
	mux.Handle("/mcp/stream", httpx.RequireToken(settings.MCPToken)(trackStreamable(registry, streamHandler)))
	mux.Handle("/admin/status", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(adminHandlers.Status)))
	mux.Handle("/admin/clients", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(adminHandlers.ClientsList)))
	mux.Handle("/admin/sessions", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(adminHandlers.SessionsList)))
	mux.Handle("/admin/clients/disconnect", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(adminHandlers.DisconnectClient)))
	mux.Handle("/admin/sessions/disconnect", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(adminHandlers.DisconnectSession)))
	mux.Handle("/admin/config", httpx.RequireToken(settings.AdminToken)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			adminHandlers.ConfigGet(w, r)
		case http.MethodPut:
			adminHandlers.ConfigSet(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	httpServer := &http.Server{
		Addr:    settings.DaemonAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("wdhub daemon listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func trackSSE(reg *clients.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := clientInfoFromRequest(r, "sse")
		clientID := ensureClient(reg, w, r, info)
		if clientID != "" {
			go func() {
				<-r.Context().Done()
				reg.Unregister(clientID)
			}()
		}
		next.ServeHTTP(w, r)
	})
}

func trackStreamable(reg *clients.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := clientInfoFromRequest(r, "streamable")
		if r.Method == http.MethodGet {
			clientID := ensureClient(reg, w, r, info)
			if clientID != "" {
				go func() {
					<-r.Context().Done()
					reg.Unregister(clientID)
				}()
			}
			next.ServeHTTP(w, r)
			return
		}
		clientID := clientIDFromRequest(r)
		if clientID != "" {
			reg.Touch(clientID, info)
		}
		next.ServeHTTP(w, r)
	})
}

func ensureClient(reg *clients.Registry, w http.ResponseWriter, r *http.Request, info clients.Info) string {
	clientID := clientIDFromRequest(r)
	if clientID == "" {
		clientID = reg.Register("", info)
		w.Header().Set("X-Assigned-Client-Id", clientID)
		return clientID
	}
	reg.Touch(clientID, info)
	return clientID
}

func clientInfoFromRequest(r *http.Request, transport string) clients.Info {
	return clients.Info{
		Name:       r.Header.Get("X-Client-Name"),
		Transport:  transport,
		RemoteAddr: httpx.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
}

func clientIDFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-Client-Id"); v != "" {
		return v
	}
	if v := r.Header.Get("X-MCP-Client-Id"); v != "" {
		return v
	}
	return ""
}
