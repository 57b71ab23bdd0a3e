package endpoints

import (
	"github.com/carenotes/carenotes/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Note endpoints
		&SimplifyEndpoint{},
		&SectionizeEndpoint{},
		&GetNoteEndpoint{},
	}
}
