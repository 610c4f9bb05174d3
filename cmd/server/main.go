// cmd/server/main.go
package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/coder/quartz"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/oust-game/oust/internal/handlers"
	"github.com/oust-game/oust/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	addr := envStr("OUST_ADDR", ":8080")
	gatherWindow := envSeconds("OUST_GATHER_SEC", 60)
	decisionTimeout := envSeconds("OUST_DECISION_SEC", 30)

	srv := handlers.NewServer(logger, quartz.NewReal(), gatherWindow, decisionTimeout)

	mux := http.NewServeMux()
	mux.Handle("/oust/ws/", middleware.LogMiddleware(logger)(srv.WSHandler()))

	logger.WithFields(logrus.Fields{
		"addr":     addr,
		"gather":   gatherWindow,
		"decision": decisionTimeout,
	}).Info("oust server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
