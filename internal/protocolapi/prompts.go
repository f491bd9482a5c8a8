package protocolapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/mikey/internal/trigger"
)

func (a *API) handleProcessPrompt(w http.ResponseWriter, r *http.Request) {
	var req trigger.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := a.svc.Process(r.Context(), req)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to process prompt")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("mikey.prompt.outcome", string(res.Outcome())),
		attribute.Int("mikey.prompt.protocols", len(res.TriggeredProtocols)),
	)

	writeJSON(w, http.StatusOK, res)
}
