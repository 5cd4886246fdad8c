package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/version"
)

// Pinger is satisfied by the record stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth godoc
//
//	@Summary		Health Check
//	@Description	Checks the service is up and its record store is reachable.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	api.HealthResponse
//	@Failure		503	{object}	api.HealthResponse
//	@Router			/health [get]
func HandleHealth(store Pinger, pingTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		resp := api.HealthResponse{
			Status:    "UP",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Store:     "ok",
		}

		if err := store.Ping(ctx); err != nil {
			logger.ContextRequestLogger(r.Context()).Error("store ping failed", slog.String("error", err.Error()))
			resp.Status = "DOWN"
			resp.Store = "unavailable"
			api.RespondWithJSONPayload(w, http.StatusServiceUnavailable, resp)
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, resp)
	}
}

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	api.VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion(info version.Info) http.HandlerFunc {
	response := api.VersionResponse{
		Version:   info.Version,
		BuildDate: info.BuildDate,
		GitCommit: info.GitCommit,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithJSONPayload(w, http.StatusOK, response)
	}
}
