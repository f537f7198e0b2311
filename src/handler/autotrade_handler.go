package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	logger "github.com/sirupsen/logrus"

	"autotrader/src/auth"
	"autotrader/src/autotrade"
	"autotrader/src/model"
	"autotrader/src/repository"
	"autotrader/src/utils"
)

type configStore interface {
	GetByUser(ctx context.Context, userID uint) (*model.AutoTradingConfig, error)
	Upsert(ctx context.Context, cfg *model.AutoTradingConfig) error
}

type logSearcher interface {
	Search(ctx context.Context, options repository.LogSearchOptions) ([]model.AutoTradingLog, error)
	GetStats(ctx context.Context, userID uint, dayStart time.Time) (*repository.Stats, error)
}

type signalFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Signal, error)
}

type autoTrader interface {
	ExecuteAutoTrade(ctx context.Context, userID uint, signal *model.Signal) autotrade.ExecutionResult
}

// GetConfigHandler returns the authenticated user's automation settings.
func GetConfigHandler(repo configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		cfg, err := repo.GetByUser(r.Context(), userID)
		if err != nil {
			logger.WithError(err).Error("failed to load auto-trading config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if cfg == nil {
			http.Error(w, "no auto-trading config found", http.StatusNotFound)
			return
		}

		writeJSON(w, cfg)
	}
}

// UpsertConfigHandler creates or replaces the user's automation settings.
func UpsertConfigHandler(repo configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var cfg model.AutoTradingConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid config payload", http.StatusBadRequest)
			return
		}

		// The route owns the user binding, never the payload.
		cfg.ID = 0
		cfg.UserID = userID

		if cfg.OrderType != "" && cfg.OrderType != model.OrderTypeMarket && cfg.OrderType != model.OrderTypeLimit {
			http.Error(w, "invalid orderType", http.StatusBadRequest)
			return
		}

		if err := repo.Upsert(r.Context(), &cfg); err != nil {
			logger.WithError(err).Error("failed to upsert auto-trading config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, &cfg)
	}
}

// SearchLogsHandler lists the user's audit trail.
// Supports pagination and filters (action, signalId, createdFrom, createdTo).
func SearchLogsHandler(repo logSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var action *string
		if actionParam := r.URL.Query().Get("action"); actionParam != "" {
			switch actionParam {
			case model.AutoTradingActionExecuted, model.AutoTradingActionSkipped, model.AutoTradingActionError:
				action = &actionParam
			default:
				http.Error(w, "invalid action", http.StatusBadRequest)
				return
			}
		}

		var signalID *uint
		if signalParam := r.URL.Query().Get("signalId"); signalParam != "" {
			id, err := strconv.ParseUint(signalParam, 10, 64)
			if err != nil {
				http.Error(w, "invalid signalId", http.StatusBadRequest)
				return
			}
			parsed := uint(id)
			signalID = &parsed
		}

		var createdFrom, createdTo *time.Time
		if createdFromParam := r.URL.Query().Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			createdFrom = &parsed
		}
		if createdToParam := r.URL.Query().Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			createdTo = &parsed
		}

		page := 1
		if pageParam := r.URL.Query().Get("page"); pageParam != "" {
			parsedPage, err := strconv.Atoi(pageParam)
			if err != nil || parsedPage <= 0 {
				http.Error(w, "invalid page", http.StatusBadRequest)
				return
			}
			page = parsedPage
		}

		pageSize := 20
		if sizeParam := r.URL.Query().Get("pageSize"); sizeParam != "" {
			parsedSize, err := strconv.Atoi(sizeParam)
			if err != nil || parsedSize <= 0 {
				http.Error(w, "invalid pageSize", http.StatusBadRequest)
				return
			}
			pageSize = parsedSize
		}

		rows, err := repo.Search(r.Context(), repository.LogSearchOptions{
			UserID:        userID,
			Action:        action,
			SignalID:      signalID,
			CreatedAfter:  createdFrom,
			CreatedBefore: createdTo,
			Limit:         pageSize,
			Offset:        (page - 1) * pageSize,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search audit log")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, rows)
	}
}

// GetStatsHandler summarizes the user's audit trail, including today's
// executed count against the daily quota.
func GetStatsHandler(repo logSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		stats, err := repo.GetStats(r.Context(), userID, utils.StartOfDay(time.Now(), time.Local))
		if err != nil {
			logger.WithError(err).Error("failed to aggregate audit stats")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, stats)
	}
}

type executeRequest struct {
	SignalID uint `json:"signal_id"`
}

// ExecuteHandler runs the execution engine for one signal on behalf of the
// authenticated user and returns the structured result. The orchestrator
// itself never errors; a failed decision is a 200 with executed=false.
func ExecuteHandler(signals signalFinder, trader autoTrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req executeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SignalID == 0 {
			http.Error(w, "invalid execute payload", http.StatusBadRequest)
			return
		}

		signal, err := signals.FindByID(r.Context(), req.SignalID)
		if err != nil {
			logger.WithError(err).Error("failed to load signal")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if signal == nil {
			http.Error(w, "signal not found", http.StatusNotFound)
			return
		}
		// Executions are one-shot per signal; replaying an already-handled
		// signal would place a second live order.
		if signal.Status != model.SignalStatusPending {
			http.Error(w, "signal is not pending", http.StatusConflict)
			return
		}

		result := trader.ExecuteAutoTrade(r.Context(), userID, signal)
		writeJSON(w, result)
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
