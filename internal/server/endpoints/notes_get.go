package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/api"
	"github.com/carenotes/carenotes/internal/notestore"
	"github.com/carenotes/carenotes/internal/svcctx"
)

// NoteResponse wraps a stored note record.
type NoteResponse struct {
	Key       string            `json:"key"`
	NoteID    string            `json:"note_id"`
	SubjectID string            `json:"subject_id"`
	HadmID    string            `json:"hadm_id"`
	NoteType  string            `json:"note_type"`
	CharTime  string            `json:"charttime,omitempty"`
	StoreTime string            `json:"storetime,omitempty"`
	Sections  map[string]string `json:"sections,omitempty"`
}

// GetNoteEndpoint handles GET /api/notes/{key}.
type GetNoteEndpoint struct{}

func (e *GetNoteEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/notes/{key}", e.handler
}

func (e *GetNoteEndpoint) RequiresInit() bool { return true }

func (e *GetNoteEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	record, err := svcctx.StoreFrom(r.Context()).Get(r.Context(), key)
	if errors.Is(err, notestore.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("note %q not found", key))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "note store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, NoteResponse{
		Key:       record.Key(),
		NoteID:    record.NoteID,
		SubjectID: record.SubjectID,
		HadmID:    record.HadmID,
		NoteType:  record.NoteType,
		CharTime:  record.CharTime,
		StoreTime: record.StoreTime,
		Sections:  record.Sections,
	})
}

func (e *GetNoteEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <key>",
		Short: "Fetch a stored note record by key (note_id_hadm_id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp NoteResponse
			if err := client.Get(cmd.Context(), "/api/notes/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
