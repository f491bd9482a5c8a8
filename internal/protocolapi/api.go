// Package protocolapi serves prompt processing, the protocol catalog and the
// tool registry over HTTP.
package protocolapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/mikey/internal/protocol"
	"github.com/linnemanlabs/mikey/internal/tools"
	"github.com/linnemanlabs/mikey/internal/trigger"
)

// MaxBodyBytes caps request bodies on every API route. The server applies
// it as middleware; handlers that read raw bodies enforce it themselves.
const MaxBodyBytes = 64 << 10

// PromptService defines the prompt operation the API needs.
type PromptService interface {
	Process(ctx context.Context, req trigger.Request) (*trigger.Result, error)
}

// Catalog defines the catalog reads the API needs.
type Catalog interface {
	LookupByID(ctx context.Context, id string) (*protocol.Protocol, bool, error)
	List(ctx context.Context, f protocol.Filter) ([]*protocol.Protocol, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     PromptService
	catalog Catalog
	tools   *tools.Registry
}

// New creates a new API handler.
func New(logger log.Logger, svc PromptService, catalog Catalog, reg *tools.Registry) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("prompt service is required"))
	}
	if catalog == nil {
		panic(xerrors.New("protocol catalog is required"))
	}
	if reg == nil {
		panic(xerrors.New("tool registry is required"))
	}
	return &API{
		logger:  logger,
		svc:     svc,
		catalog: catalog,
		tools:   reg,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/prompts/process", a.handleProcessPrompt)
		r.Get("/protocols", a.handleListProtocols)
		r.Get("/protocols/{id}", a.handleGetProtocol)
		r.Get("/tools", a.handleListTools)
		r.Post("/tools/{name}", a.handleCallTool)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var errUnknownTool = errors.New("unknown tool")
