package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/api"
	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/pipeline"
	"github.com/carenotes/carenotes/internal/providers"
	"github.com/carenotes/carenotes/internal/svcctx"
)

// SimplifyRequest is the request body for POST /api/simplify.
type SimplifyRequest struct {
	NoteID string `json:"note_id"`
	HadmID string `json:"hadm_id"`
	// Provider overrides the configured default when non-empty.
	Provider string `json:"provider,omitempty"`
}

// SimplifyResponse wraps a simplification result.
type SimplifyResponse struct {
	Success bool             `json:"success"`
	Data    *pipeline.Result `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SimplifyEndpoint handles POST /api/simplify.
type SimplifyEndpoint struct{}

func (e *SimplifyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/simplify", e.handler
}

func (e *SimplifyEndpoint) RequiresInit() bool { return true }

func (e *SimplifyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SimplifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.NoteID = strings.TrimSpace(req.NoteID)
	req.HadmID = strings.TrimSpace(req.HadmID)
	if req.NoteID == "" || req.HadmID == "" {
		writeError(w, http.StatusBadRequest, "Both note_id and hadm_id are required.")
		return
	}

	s := svcctx.ServicesFrom(r.Context())
	p, err := buildPipeline(s, req.Provider)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	result, err := p.Process(r.Context(), req.NoteID, req.HadmID)
	if err != nil {
		status, msg := translateProcessError(err, req.NoteID)
		writeJSON(w, status, SimplifyResponse{Success: false, Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, SimplifyResponse{Success: true, Data: result})
}

// buildPipeline assembles a pipeline from the request-scoped services.
// Constructing it per request keeps hot-reloaded provider config live.
func buildPipeline(s *svcctx.Services, provider string) (*pipeline.Pipeline, error) {
	cfg := s.ConfigManager.Get()
	if provider == "" {
		provider = cfg.Defaults.Provider
	}

	client, err := s.Registry.Get(provider)
	if err != nil {
		return nil, fmt.Errorf("no usable LLM provider %q: check API keys in config", provider)
	}

	return pipeline.New(s.Store, client, pipeline.Config{
		MaxPromptChars:  cfg.Pipeline.MaxPromptChars,
		PersistSections: cfg.Pipeline.PersistSections,
	}, s.Logger), nil
}

// translateProcessError maps pipeline failure kinds onto HTTP statuses
// and messages a patient-facing frontend can show directly.
func translateProcessError(err error, noteID string) (int, string) {
	switch {
	case errors.Is(err, notestore.ErrNotFound):
		return http.StatusNotFound, fmt.Sprintf(
			"Note %q not found. Check that the note id and hadm id are correct and the collection is populated.", noteID)
	case errors.Is(err, providers.ErrQuotaExceeded):
		return http.StatusPaymentRequired,
			"The model provider requires payment or the free tier limit was reached. Please add API credits."
	case errors.Is(err, providers.ErrPermissionDenied):
		return http.StatusForbidden,
			"The model provider rejected the configured credentials. Check the API key in config."
	case errors.Is(err, providers.ErrEmptyOutput):
		return http.StatusBadGateway,
			"The model returned an empty response. Please try again."
	case errors.Is(err, pipeline.ErrInvalidOutput):
		return http.StatusBadGateway,
			"The model returned output that could not be parsed. Please try again."
	default:
		return http.StatusInternalServerError,
			"Internal server error. Please try again later."
	}
}

func (e *SimplifyEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "simplify <note_id> <hadm_id>",
		Short: "Simplify a stored note into patient-friendly language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SimplifyResponse
			err := client.Post(cmd.Context(), "/api/simplify", SimplifyRequest{
				NoteID:   args[0],
				HadmID:   args[1],
				Provider: provider,
			}, &resp)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("%s", resp.Error)
			}
			return api.Output(resp.Data)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider to use (default from config)")
	return cmd
}
