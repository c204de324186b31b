package handler

import "net/http"

// SystemHandler serves the unauthenticated service endpoints: the public
// client configuration, the effective public URL, and the health check.
type SystemHandler struct {
	publicURL         string
	googleClientID    string
	microsoftClientID string
	githubEnabled     bool
}

// NewSystemHandler creates a SystemHandler. The client IDs are public by
// nature (they ship in browser JavaScript anyway); secrets never pass
// through here.
func NewSystemHandler(publicURL, googleClientID, microsoftClientID string, githubEnabled bool) *SystemHandler {
	return &SystemHandler{
		publicURL:         publicURL,
		googleClientID:    googleClientID,
		microsoftClientID: microsoftClientID,
		githubEnabled:     githubEnabled,
	}
}

// HandleConfig tells the frontend which login channels are available.
//
// HTTP: GET /api/config
func (h *SystemHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"googleClientId": h.googleClientID,
		"msClientId":     h.microsoftClientID,
		"githubEnabled":  h.githubEnabled,
	})
}

// HandleInfo reports the base URL the service is reachable at, so the
// frontend can build absolute links. PUBLIC_URL wins when configured;
// otherwise the URL is inferred from the request, honouring the
// X-Forwarded-Proto header a reverse proxy sets.
//
// HTTP: GET /api/info
func (h *SystemHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	url := h.publicURL
	if url == "" {
		scheme := r.Header.Get("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "http"
			if r.TLS != nil {
				scheme = "https"
			}
		}
		url = scheme + "://" + r.Host
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"publicUrl": url})
}

// HandleHealth is the liveness probe.
//
// HTTP: GET /healthz
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
