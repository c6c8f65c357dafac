// ABOUTME: HTTP handlers for POST /api/messages, POST /api/chat, and GET /api/health
// ABOUTME: The webhook acknowledges fast; reply generation outcome never changes its status

package gateway

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/grepton/freshbot/internal/activity"
)

// ChatRequest is the JSON request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reply     string `json:"reply"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is the JSON response for GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	LLMProvider string `json:"llm_provider"`
}

// ErrorResponse is the JSON error body shared by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// The legacy direct-test endpoint funnels everything into one conversation.
const testConversationID = "test-conversation"

// handleMessages handles POST /api/messages, the Bot Framework webhook.
//
// The channel expects a timely 200-class acknowledgment of receipt, not
// delivery confirmation: once the activity parses, the handler dispatches and
// acknowledges regardless of what the provider or the connector did.
func (g *Gateway) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !hasJSONContentType(r) {
		g.logger.Warn("webhook called with non-JSON content type",
			"content_type", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	var act activity.Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		g.logger.Error("malformed activity payload", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "invalid activity payload")
		return
	}

	g.logger.Info("activity received", "type", act.Type, "activity_id", act.ID)

	if g.seen.Seen(act.ID) {
		g.logger.Info("duplicate activity dropped", "activity_id", act.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	g.dispatcher.Dispatch(r.Context(), &act)

	w.WriteHeader(http.StatusOK)
}

// handleChat handles POST /api/chat, the legacy direct-test endpoint. It
// bypasses the Bot Framework envelope and talks to the router under a fixed
// conversation id.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid JSON",
			Details: err.Error(),
		})
		return
	}

	snap := g.cfg.Snapshot()
	reply := g.router.Respond(r.Context(), snap.LLM.Provider, testConversationID, req.Message)

	g.sendJSON(w, http.StatusOK, ChatResponse{
		Success:   true,
		Message:   req.Message,
		Reply:     reply,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleHealth handles GET /api/health.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	g.sendJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Service:     ServiceName,
		LLMProvider: g.cfg.Snapshot().LLM.Provider,
	})
}

// sendJSON writes a JSON response with the given status code.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Error("encoding response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, ErrorResponse{Error: message})
}

// hasJSONContentType reports whether the request declares a JSON body.
// Parameters like charset are allowed.
func hasJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
