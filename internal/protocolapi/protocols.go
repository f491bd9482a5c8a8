package protocolapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/mikey/internal/protocol"
	"github.com/linnemanlabs/mikey/internal/tools"
)

func (a *API) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	var f protocol.Filter
	if v := r.URL.Query().Get("tier"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tier")
			return
		}
		tier := protocol.Tier(n)
		f.Tier = &tier
	}
	if v := r.URL.Query().Get("status"); v != "" {
		f.Status = protocol.Status(v)
		if !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	ps, err := a.catalog.List(r.Context(), f)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list protocols")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ps == nil {
		ps = []*protocol.Protocol{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(ps),
		"protocols": ps,
	})
}

func (a *API) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("mikey.protocol.id", id))

	p, ok, err := a.catalog.LookupByID(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get protocol", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": a.tools.ToToolDefs()})
}

func (a *API) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("mikey.tool.name", name))

	if _, ok := a.tools.Get(name); !ok {
		writeJSON(w, http.StatusNotFound, tools.ErrorResult(name, errUnknownTool))
		return
	}

	params, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res := a.tools.Call(r.Context(), name, params)
	span.SetAttributes(attribute.Bool("mikey.tool.is_error", res.IsError))
	writeJSON(w, http.StatusOK, res)
}
