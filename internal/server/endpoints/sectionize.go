package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/api"
	"github.com/carenotes/carenotes/internal/normalize"
	"github.com/carenotes/carenotes/internal/sectionizer"
)

// SectionizeRequest is the request body for POST /api/sectionize.
type SectionizeRequest struct {
	NoteType string `json:"note_type"`
	Text     string `json:"text"`
	// Clean applies text normalization to each extracted section.
	Clean bool `json:"clean,omitempty"`
}

// SectionizeResponse carries the extracted sections.
type SectionizeResponse struct {
	NoteType string                 `json:"note_type"`
	Sections sectionizer.SectionMap `json:"sections"`
}

// SectionizeEndpoint handles POST /api/sectionize. It runs entirely
// locally and needs neither the store nor a provider.
type SectionizeEndpoint struct{}

func (e *SectionizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sectionize", e.handler
}

func (e *SectionizeEndpoint) RequiresInit() bool { return false }

func (e *SectionizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SectionizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NoteType == "" {
		req.NoteType = string(sectionizer.NoteTypeDischarge)
	}

	sections, err := sectionizer.Sectionize(sectionizer.NoteType(req.NoteType), req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Clean {
		for id, body := range sections {
			sections[id] = normalize.Normalize(body, normalize.ProfileBasic)
		}
	}

	writeJSON(w, http.StatusOK, SectionizeResponse{
		NoteType: req.NoteType,
		Sections: sections,
	})
}

func (e *SectionizeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var noteType string
	var clean bool

	cmd := &cobra.Command{
		Use:   "sectionize <file>",
		Short: "Split a note file into canonical sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read note: %w", err)
			}

			client := api.NewClient(getServerURL())
			var resp SectionizeResponse
			err = client.Post(cmd.Context(), "/api/sectionize", SectionizeRequest{
				NoteType: strings.ToLower(noteType),
				Text:     string(data),
				Clean:    clean,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp.Sections)
		},
	}
	cmd.Flags().StringVar(&noteType, "type", "discharge", "note type (discharge or radiology)")
	cmd.Flags().BoolVar(&clean, "clean", false, "normalize extracted section text")
	return cmd
}
