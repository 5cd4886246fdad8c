package handlers

import (
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/zypp-relay/internal/api"
	"github.com/information-sharing-networks/zypp-relay/internal/envelope"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
)

// VerificationObserver is notified of each envelope verification. code is empty on success.
type VerificationObserver interface {
	EnvelopeVerification(code string)
}

// HandleVerifyEnvelope godoc
//
//	@Summary		Verify a package envelope
//	@Description	Decodes and verifies an envelope: required fields, payload checksum, expiry, every signature
//	@Description	and (for unencrypted payloads) that the payload matches the declared type.
//	@Description
//	@Description	Envelope ids are single use. An id that has already been accepted is refused with 409.
//	@Tags			Envelopes
//	@Accept			json
//	@Produce		json
//	@Param			envelope	body		envelope.Envelope	true	"Envelope"
//	@Success		200			{object}	api.VerifyEnvelopeResponse
//	@Failure		400			{object}	api.ErrorResponse	"Malformed envelope, bad checksum or bad signature"
//	@Failure		409			{object}	api.ErrorResponse	"Envelope id already accepted"
//	@Failure		422			{object}	api.ErrorResponse	"Expired envelope or payload does not match type"
//	@Router			/api/mobile/envelopes/verify [post]
func HandleVerifyEnvelope(records store.Store, observer VerificationObserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		env, err := envelope.Decode(body)
		if err == nil {
			err = envelope.Verify(env)
		}
		if err != nil {
			code, _ := envelope.CodeOf(err)
			observer.EnvelopeVerification(string(code))
			api.RespondWithErrorResponse(w, r, err)
			return
		}
		observer.EnvelopeVerification("")

		logger.ContextWithLogAttrs(r.Context(),
			slog.String("envelope_id", env.Header.ID),
			slog.String("envelope_type", string(env.Header.Type)),
		)

		duplicate, err := records.RecordEnvelope(r.Context(), env.Header.ID, env.Header.Sender)
		if err != nil {
			api.RespondWithErrorResponse(w, r, api.WrapInternalError(err, "failed to record envelope"))
			return
		}
		if duplicate {
			api.RespondWithErrorResponse(w, r, api.NewDuplicateEnvelopeError("envelope "+env.Header.ID+" has already been accepted"))
			return
		}

		api.RespondWithJSONPayload(w, http.StatusOK, api.VerifyEnvelopeResponse{
			ID:        env.Header.ID,
			Type:      string(env.Header.Type),
			Network:   string(env.Meta.Network),
			Signers:   env.Signers(),
			Duplicate: false,
		})
	}
}
