package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/weedbox/pokergame"
	"github.com/weedbox/pokergame/distlock"
	"github.com/weedbox/pokergame/gateway"
	"github.com/weedbox/pokergame/store"
)

const lockStaleAfter = 10 * time.Second

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStore(ctx, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	locker := buildLocker(logger)

	gw := gateway.NewGateway(s, locker, pokergame.DefaultConfig(), gateway.WithLogger(logger))
	defer gw.Close()
	gw.OnErrorUpdated(func(tableID string, err error) {
		if pokergame.IsFatal(err) {
			logger.Error("table entered fatal state",
				zap.String("table_id", tableID),
				zap.Error(err))
		}
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(gw, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// buildStore prefers Postgres when DATABASE_URL is set, falling back to the
// in-memory store for local runs.
func buildStore(ctx context.Context, logger *zap.Logger) (store.Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Info("using in-memory store")
		return store.NewMemoryStore(), nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pg := store.NewPGStore(pool, logger)
	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}
	logger.Info("using postgres store")
	return pg, nil
}

func buildLocker(logger *zap.Logger) distlock.Locker {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Info("using in-process locker")
		return distlock.NewInProcessLocker(lockStaleAfter)
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	logger.Info("using redis locker")
	return distlock.NewRedisLocker(redis.NewClient(opts), lockStaleAfter, logger)
}

func newRouter(gw *gateway.Gateway, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/tables", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				ID           string  `json:"id"`
				TournamentID string  `json:"tournament_id"`
				Type         string  `json:"type"`
				BigBlind     float64 `json:"big_blind"`
				PotIncrement float64 `json:"pot_increment"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			game, err := gw.CreateTable(req.Context(), gateway.CreateTableOptions{
				ID:           body.ID,
				TournamentID: body.TournamentID,
				Type:         body.Type,
				BigBlind:     body.BigBlind,
				PotIncrement: body.PotIncrement,
			})
			if err != nil {
				writeGatewayError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, game)
		})

		r.Route("/{tableID}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				game, err := gw.GetTable(req.Context(), chi.URLParam(req, "tableID"))
				if err != nil {
					writeGatewayError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, game)
			})

			r.Post("/players", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					PlayerID string  `json:"player_id"`
					BuyIn    float64 `json:"buy_in"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				if err := gw.JoinTable(req.Context(), chi.URLParam(req, "tableID"), body.PlayerID, body.BuyIn); err != nil {
					writeGatewayError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Delete("/players/{playerID}", func(w http.ResponseWriter, req *http.Request) {
				err := gw.LeaveTable(req.Context(), chi.URLParam(req, "tableID"), chi.URLParam(req, "playerID"))
				if err != nil {
					writeGatewayError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/hands", func(w http.ResponseWriter, req *http.Request) {
				res, err := gw.StartHand(req.Context(), chi.URLParam(req, "tableID"))
				if err != nil {
					writeGatewayError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, res)
			})

			r.Post("/actions", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					PlayerID string  `json:"player_id"`
					Action   string  `json:"action"`
					Amount   float64 `json:"amount"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				res, err := gw.SubmitAction(req.Context(), chi.URLParam(req, "tableID"),
					body.PlayerID, pokergame.ActionType(body.Action), body.Amount)
				if err != nil {
					writeGatewayError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, res)
			})

			r.Post("/ready", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					PlayerID string `json:"player_id"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}
				if err := gw.PlayerReady(req.Context(), chi.URLParam(req, "tableID"), body.PlayerID); err != nil {
					writeGatewayError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/timeout", func(w http.ResponseWriter, req *http.Request) {
				res, err := gw.EnforceTimeout(req.Context(), chi.URLParam(req, "tableID"))
				if err != nil {
					writeGatewayError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, res)
			})
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, pokergame.ErrNotYourTurn),
		errors.Is(err, pokergame.ErrIllegalAction),
		errors.Is(err, pokergame.ErrIllegalActionAmount),
		errors.Is(err, pokergame.ErrInsufficientBalance),
		errors.Is(err, pokergame.ErrNoActionSubmitted),
		errors.Is(err, pokergame.ErrNoActiveHand),
		errors.Is(err, pokergame.ErrNotEnoughPlayers),
		errors.Is(err, pokergame.ErrPlayerNotFound),
		errors.Is(err, gateway.ErrTableNotReady):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, distlock.ErrAcquireTimeout):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
