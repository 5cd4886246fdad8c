package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
)

// SubmissionObserver is notified of the outcome of each relayed transaction.
type SubmissionObserver interface {
	Submission(err error)
}

// HandleCreateTransaction godoc
//
//	@Summary		Build an unsigned transfer
//	@Description	Builds a transfer of `lamports` from `fromPublicKey` (who also pays the fee) to `toPublicKey`.
//	@Description
//	@Description	The returned transaction is unsigned. The client signs it and sends it to /api/mobile/transaction/submit
//	@Description	before `lastValidBlockHeight` is reached. Nothing is submitted by this call.
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		api.CreateTransactionRequest	true	"Transfer details"
//	@Success		200		{object}	api.CreateTransactionResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid address or amount"
//	@Failure		502		{object}	api.ErrorResponse	"Ledger network unavailable"
//	@Router			/api/mobile/transaction/create [post]
func HandleCreateTransaction(builder *ledger.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateTransactionRequest
		if err := decodeJSONBody(r, &req); err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		unsigned, err := builder.BuildTransfer(r.Context(), req.FromPublicKey, req.ToPublicKey, req.Lamports)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("from", req.FromPublicKey),
			slog.String("to", req.ToPublicKey),
			slog.Int64("lamports", req.Lamports),
		)

		api.RespondWithJSONPayload(w, http.StatusOK, api.CreateTransactionResponse{
			UnsignedTransaction:  unsigned.Transaction,
			Blockhash:            unsigned.Blockhash,
			LastValidBlockHeight: unsigned.LastValidBlockHeight,
			Message:              "Transaction created. Sign it and submit it to /api/mobile/transaction/submit",
		})
	}
}

// HandleSubmitTransaction godoc
//
//	@Summary		Relay a signed transaction
//	@Description	Relays a client-signed transaction to the ledger network and waits for confirmation.
//	@Description
//	@Description	The relay is attempted up to 3 times on connection errors. When the response is a submission
//	@Description	failure (502, errorCode 8006) the transaction may still land: query
//	@Description	/api/mobile/transaction/{signature}/status before building a new transaction.
//	@Description	The signature is returned in the X-Transaction-Signature header on failures.
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		api.SubmitTransactionRequest	true	"Signed transaction"
//	@Success		200		{object}	api.SubmitTransactionResponse
//	@Failure		400		{object}	api.ErrorResponse	"Invalid encoding or missing signatures"
//	@Failure		422		{object}	api.ErrorResponse	"Rejected by the ledger network"
//	@Failure		502		{object}	api.ErrorResponse	"Submission failed, outcome unknown"
//	@Router			/api/mobile/transaction/submit [post]
func HandleSubmitTransaction(submitter *ledger.Submitter, records store.Store, observer SubmissionObserver, profile config.NetworkProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.ContextRequestLogger(r.Context())

		var req api.SubmitTransactionRequest
		if err := decodeJSONBody(r, &req); err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		// checked here as well as in Submit so the expected signature is known even if the relay fails
		_, tx, err := ledger.DecodeSignedTransaction(req.SignedTransaction)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}
		expected := tx.Signatures[0].String()
		logger.ContextWithLogAttrs(r.Context(), slog.String("signature", expected))

		sig, err := submitter.Submit(r.Context(), req.SignedTransaction)
		observer.Submission(err)

		record := store.Submission{
			Signature:  expected,
			EnvelopeID: req.EnvelopeID,
			Status:     store.SubmissionConfirmed,
			CreatedAt:  time.Now().UTC(),
		}
		if err != nil {
			record.Status = store.SubmissionUnknown
			if ledger.HasCode(err, ledger.ErrCodeRejected) {
				record.Status = store.SubmissionRejected
			}
			record.Error = err.Error()
		}

		// the submission has happened whether or not the client is still connected
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if recErr := records.RecordSubmission(recordCtx, record); recErr != nil {
			reqLogger.Error("failed to record submission",
				slog.String("signature", expected),
				slog.String("error", recErr.Error()))
		}

		if err != nil {
			w.Header().Set("X-Transaction-Signature", expected)
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		reqLogger.Info("transaction confirmed",
			slog.String("signature", sig.String()),
			slog.String("envelope_id", req.EnvelopeID))

		api.RespondWithJSONPayload(w, http.StatusOK, api.SubmitTransactionResponse{
			Signature:   sig.String(),
			ExplorerURL: ledger.ExplorerURL(sig.String(), profile.ExplorerCluster, profile.RPCEndpoint),
			Message:     "Transaction confirmed",
		})
	}
}

// HandleTransactionStatus godoc
//
//	@Summary		Get the status of a relayed transaction
//	@Description	Re-queries the ledger network for a transaction signature. If the transaction was relayed by
//	@Description	this gateway the gateway's record is included.
//	@Tags			Transactions
//	@Produce		json
//	@Param			signature	path		string	true	"Transaction signature (base58)"
//	@Success		200			{object}	api.TransactionStatusResponse
//	@Failure		400			{object}	api.ErrorResponse	"Invalid signature"
//	@Failure		502			{object}	api.ErrorResponse	"Ledger network unavailable"
//	@Router			/api/mobile/transaction/{signature}/status [get]
func HandleTransactionStatus(query *ledger.QueryClient, records store.Store, profile config.NetworkProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signature := chi.URLParam(r, "signature")

		status, err := query.GetSignatureStatus(r.Context(), signature)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		resp := api.TransactionStatusResponse{
			Signature:          status.Signature,
			Found:              status.Found,
			Slot:               status.Slot,
			ConfirmationStatus: status.ConfirmationStatus,
			Err:                status.Err,
			ExplorerURL:        ledger.ExplorerURL(status.Signature, profile.ExplorerCluster, profile.RPCEndpoint),
		}

		sub, err := records.GetSubmission(r.Context(), status.Signature)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			logger.ContextRequestLogger(r.Context()).Warn("failed to read submission record",
				slog.String("signature", status.Signature),
				slog.String("error", err.Error()))
		default:
			resp.Submission = &api.SubmissionRecord{
				EnvelopeID: sub.EnvelopeID,
				Status:     string(sub.Status),
				Error:      sub.Error,
				CreatedAt:  sub.CreatedAt.UTC().Format(time.RFC3339),
			}
		}

		api.RespondWithJSONPayload(w, http.StatusOK, resp)
	}
}
