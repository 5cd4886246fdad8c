package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
)

// HandleBalance godoc
//
//	@Summary		Get an account balance
//	@Description	Returns the confirmed balance in SOL. Accounts unknown to the network have a balance of 0.
//	@Tags			Accounts
//	@Produce		json
//	@Param			publicKey	path		string	true	"Account address (base58)"
//	@Success		200			{object}	api.BalanceResponse
//	@Failure		400			{object}	api.ErrorResponse	"Invalid address"
//	@Failure		502			{object}	api.ErrorResponse	"Ledger network unavailable"
//	@Router			/api/mobile/balance/{publicKey} [get]
func HandleBalance(query *ledger.QueryClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicKey := chi.URLParam(r, "publicKey")

		balance, err := query.GetBalance(r.Context(), publicKey)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, api.BalanceResponse{
			Balance:   balance.String(),
			PublicKey: publicKey,
			Unit:      ledger.DisplayUnit,
		})
	}
}

// HandleAirdrop godoc
//
//	@Summary		Request faucet credit
//	@Description	Asks the network faucet to credit an account and waits for confirmation.
//	@Description
//	@Description	Only available on networks with a faucet (not mainnet). The amount must be greater than 0 and at most 2 SOL.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		api.AirdropRequest	true	"Account and amount"
//	@Success		200		{object}	api.AirdropResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid address or amount, or no faucet on this network"
//	@Failure		502		{object}	api.ErrorResponse	"Ledger network unavailable"
//	@Router			/api/mobile/airdrop [post]
func HandleAirdrop(query *ledger.QueryClient, profile config.NetworkProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.AirdropRequest
		if err := decodeJSONBody(r, &req); err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		sig, err := query.RequestFaucetCredit(r.Context(), req.PublicKey, req.Amount)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("account", req.PublicKey),
			slog.String("amount", req.Amount.String()),
		)

		api.RespondWithJSONPayload(w, http.StatusOK, api.AirdropResponse{
			Signature:   sig.String(),
			Amount:      req.Amount.String(),
			PublicKey:   req.PublicKey,
			ExplorerURL: ledger.ExplorerURL(sig.String(), profile.ExplorerCluster, profile.RPCEndpoint),
			Message:     "Faucet credit confirmed",
		})
	}
}

// HandleConnection godoc
//
//	@Summary		Check the ledger network connection
//	@Description	Reports the RPC endpoint, node version and current slot.
//	@Tags			Accounts
//	@Produce		json
//	@Success		200	{object}	api.ConnectionResponse
//	@Failure		502	{object}	api.ErrorResponse	"Ledger network unavailable"
//	@Router			/api/mobile/connection [get]
func HandleConnection(query *ledger.QueryClient, profile config.NetworkProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := query.GetNetworkStatus(r.Context())
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, api.ConnectionResponse{
			Status:      "connected",
			Network:     string(profile.Cluster),
			RPCURL:      status.Endpoint,
			Version:     status.Version,
			CurrentSlot: status.CurrentSlot,
		})
	}
}
