package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/scrumpoker/scrumpoker/config"
	"github.com/scrumpoker/scrumpoker/game"
	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/store"
	"github.com/scrumpoker/scrumpoker/ws"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "localhost:8000", "ws service address (including port)")
	sslCert    = pflag.String("ssl-cert", "", "SSL cert for websocket (optional)")
	sslKey     = pflag.String("ssl-key", "", "SSL key for websocket (optional)")

	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()
	log.SetFlags(0)

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}
	globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))

	clock := clockwork.NewRealClock()
	roomStore := store.NewStore(globalConfig.MaxPlayers, clock)
	gameService := game.NewService(roomStore)
	hub := ws.NewHub()
	handler := ws.NewHandler(roomStore, gameService, hub, ws.NewGraceTable(clock), clock, globalConfig.GracePeriod())

	cronRunner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = cronRunner.AddFunc(globalConfig.CleanupSpec, func() {
		if cleaned := roomStore.Cleanup(globalConfig.CleanupThreshold()); cleaned > 0 {
			globals.AppLogger.Info("cleanup removed stale rooms", "count", cleaned)
		}
	})
	if err != nil {
		panic(err)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	setupRoutes(hub, handler, roomStore)

	globals.AppLogger.Info("listening", "addr", *addr)
	if *sslCert != "" && *sslKey != "" {
		err = http.ListenAndServeTLS(*addr, *sslCert, *sslKey, nil)
	} else {
		err = http.ListenAndServe(*addr, nil)
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}

func setupRoutes(hub *ws.Hub, handler *ws.Handler, roomStore *store.Store) {
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocketHandler(w, r, hub, handler)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		statsHandler(w, r, roomStore)
	}).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	http.Handle("/", router)
}

// statsHandler serves the read-only admin projection.
func statsHandler(w http.ResponseWriter, r *http.Request, roomStore *store.Store) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roomStore.AdminStats()); err != nil {
		globals.AppLogger.Error("could not encode admin stats", "error", err)
	}
}

// Handle incoming websockets. Room membership is established later via the
// join-room message, the connection itself is room-agnostic.
func websocketHandler(w http.ResponseWriter, r *http.Request, hub *ws.Hub, handler *ws.Handler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		globals.AppLogger.Error("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close() //nolint

	doneChan := make(chan struct{})
	client := ws.NewClient(hub, conn, uuid.NewString(), doneChan)
	globals.AppLogger.Debug("client connected", "player", client.PlayerId)

	hub.Register(client)
	go client.WriteLoop()
	client.ReadLoop(handler)

	// the read loop returned, the connection is gone
	roomCode := hub.RoomCode(client)
	hub.Unregister(client)
	handler.HandleDisconnect(client, roomCode)
	globals.AppLogger.Debug("client disconnected", "player", client.PlayerId)
}
