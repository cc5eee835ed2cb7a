// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/parley/internal/export"
	"github.com/jeranaias/parley/internal/groq"
	"github.com/jeranaias/parley/internal/response"
	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/voice"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8741

	// MaxRequestBodySize caps request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageLength is the maximum length of a single chat message.
	MaxMessageLength = 100000

	// healthCheckTimeout bounds the upstream probe in /health.
	healthCheckTimeout = 2 * time.Second

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks server usage counters.
type ServerStats struct {
	mu sync.Mutex

	totalRequests int64
	chatRequests  int64
	modelErrors   int64
	startTime     time.Time
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{startTime: time.Now()}
}

// RecordRequest counts one HTTP request.
func (s *ServerStats) RecordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
}

// RecordChat counts one chat completion, failed or not.
func (s *ServerStats) RecordChat(modelErr bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatRequests++
	if modelErr {
		s.modelErrors++
	}
}

// Snapshot returns the current counter values.
func (s *ServerStats) Snapshot() (total, chats, modelErrs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRequests, s.chatRequests, s.modelErrors
}

// Uptime returns the server uptime duration.
func (s *ServerStats) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP API server.
type Server struct {
	host   string
	port   int
	router *http.ServeMux
	server *http.Server

	store     *storage.Store
	client    *groq.Client
	processor *response.Processor
	sessions  *session.Registry
	stats     *ServerStats
	voice     *voice.Controller

	exportDir string
	rps       float64
	burst     int
	maxBody   int64

	mu sync.RWMutex
}

// NewServer creates a new Server listening on host:port.
// A zero port selects the default port; an empty host binds loopback.
func NewServer(host string, port int) *Server {
	if port == 0 {
		port = DefaultPort
	}
	if host == "" {
		host = "127.0.0.1"
	}

	s := &Server{
		host:      host,
		port:      port,
		router:    http.NewServeMux(),
		processor: response.NewProcessor(),
		sessions:  session.NewRegistry(),
		stats:     NewServerStats(),
		rps:       10,
		burst:     20,
		maxBody:   MaxRequestBodySize,
	}

	s.setupRoutes()
	return s
}

// WithStore sets the conversation store.
func (s *Server) WithStore(store *storage.Store) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	return s
}

// WithGroqClient sets the Groq API client.
func (s *Server) WithGroqClient(client *groq.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	return s
}

// WithExportDir sets the directory for file exports.
func (s *Server) WithExportDir(dir string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exportDir = dir
	return s
}

// WithVoice sets the speech controller used for auto-speak.
func (s *Server) WithVoice(controller *voice.Controller) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = controller
	return s
}

// WithMaxBodyBytes overrides the request body size cap. Values below one
// keep the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.maxBody = n
	}
	return s
}

// WithVoiceDefaults sets the voice state new sessions start with.
func (s *Server) WithVoiceDefaults(voiceEnabled, autoSpeak bool) *Server {
	s.sessions.SetVoiceDefaults(voiceEnabled, autoSpeak)
	return s
}

// WithRateLimit overrides the per-IP request rate limit.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rps = rps
	s.burst = burst
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)

	s.router.HandleFunc("GET /api/conversations", s.handleListConversations)
	s.router.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	s.router.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)
	s.router.HandleFunc("POST /api/conversations/{id}/save", s.handleSaveConversation)
	s.router.HandleFunc("GET /api/conversations/{id}/export", s.handleExportConversation)
	s.router.HandleFunc("POST /api/conversations/{id}/voice", s.handleVoiceSettings)
	s.router.HandleFunc("POST /api/conversations/{id}/listen", s.handleVoiceListen)

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the fully wrapped handler, including middleware.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(DefaultCORSConfig()),
		RateLimitMiddleware(NewRateLimiter(s.rps, s.burst)),
		s.countingMiddleware(),
	)(s.router)
}

// countingMiddleware feeds the request counter.
func (s *Server) countingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.stats.RecordRequest()
			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
}

// ChatResponse is the reply from POST /api/chat.
type ChatResponse struct {
	ConversationID string                      `json:"conversation_id"`
	Message        storage.Message             `json:"message"`
	Processed      *response.ProcessedResponse `json:"processed"`
}

// handleChat handles POST /api/chat.
//
// The assistant reply is post-processed before it is returned; if the
// model call fails the failure text becomes the reply, prefixed with
// "Error: ", and the request still succeeds.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	maxBody := s.maxBodyBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBody))
			return
		}
		log.Printf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "Message must not be empty")
		return
	}
	if len(req.Message) > MaxMessageLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message exceeds maximum length of %d", MaxMessageLength))
		return
	}

	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	model := req.Model
	if model == "" && client != nil {
		model = client.GetDefaultModel()
	}

	sess := s.sessions.GetOrCreate(req.ConversationID, model)
	if req.Model != "" {
		sess.SetModel(req.Model)
	}

	sess.Append("user", req.Message)
	sess.SetTyping(true)
	defer sess.SetTyping(false)

	reply, err := s.complete(r.Context(), client, sess)
	if err != nil {
		log.Printf("CHAT_MODEL_ERROR | conversation=%s error=%v", sess.ConversationID(), err)
		reply = "Error: " + err.Error()
	}
	s.stats.RecordChat(err != nil)

	rec := s.processor.Process(reply, map[string]string{
		"conversation_id": sess.ConversationID(),
		"model":           sess.Model(),
	})
	msg := sess.Append("assistant", reply)
	s.maybeSpeak(sess, rec.PlainText)

	s.writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: sess.ConversationID(),
		Message:        msg,
		Processed:      rec,
	})
}

// complete sends the session's context window to the model.
func (s *Server) complete(ctx context.Context, client *groq.Client, sess *session.Session) (string, error) {
	if client == nil {
		return "", groq.ErrMissingAPIKey
	}

	window := sess.Context()
	messages := make([]groq.Message, len(window))
	for i, m := range window {
		messages[i] = groq.Message{Role: m.Role, Content: m.Content}
	}

	return client.Chat(ctx, sess.Model(), messages)
}

// maybeSpeak plays the reply aloud when the session has auto-speak on.
// Playback runs on the controller's own goroutine.
func (s *Server) maybeSpeak(sess *session.Session, plainText string) {
	s.mu.RLock()
	controller := s.voice
	s.mu.RUnlock()

	if controller == nil || !controller.CanSpeak() {
		return
	}
	if !sess.VoiceEnabled() || !sess.AutoSpeak() {
		return
	}
	if err := controller.Speak(plainText); err != nil {
		log.Printf("VOICE_SPEAK_ERROR | conversation=%s error=%v", sess.ConversationID(), err)
	}
}

// ============================================================================
// VOICE HANDLER
// ============================================================================

// VoiceSettingsRequest is the body of POST /api/conversations/{id}/voice.
// Omitted fields are left unchanged.
type VoiceSettingsRequest struct {
	VoiceEnabled *bool `json:"voice_enabled,omitempty"`
	AutoSpeak    *bool `json:"auto_speak,omitempty"`
	StopSpeaking bool  `json:"stop_speaking,omitempty"`
}

// VoiceSettingsResponse reports the session's voice state and what the
// configured engines can do.
type VoiceSettingsResponse struct {
	ConversationID string `json:"conversation_id"`
	VoiceEnabled   bool   `json:"voice_enabled"`
	AutoSpeak      bool   `json:"auto_speak"`
	CanListen      bool   `json:"can_listen"`
	CanSpeak       bool   `json:"can_speak"`
	IsSpeaking     bool   `json:"is_speaking"`
}

// handleVoiceSettings handles POST /api/conversations/{id}/voice.
func (s *Server) handleVoiceSettings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "No live session for conversation: "+id)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	var req VoiceSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.VoiceEnabled != nil {
		sess.SetVoiceEnabled(*req.VoiceEnabled)
	}
	if req.AutoSpeak != nil {
		sess.SetAutoSpeak(*req.AutoSpeak)
	}

	s.mu.RLock()
	controller := s.voice
	s.mu.RUnlock()

	if req.StopSpeaking && controller != nil {
		controller.StopSpeaking()
	}

	resp := VoiceSettingsResponse{
		ConversationID: sess.ConversationID(),
		VoiceEnabled:   sess.VoiceEnabled(),
		AutoSpeak:      sess.AutoSpeak(),
	}
	if controller != nil {
		resp.CanListen = controller.CanListen()
		resp.CanSpeak = controller.CanSpeak()
		resp.IsSpeaking = controller.IsSpeaking()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListenRequest is the body of POST /api/conversations/{id}/listen.
type ListenRequest struct {
	// Action is "start" to begin recording or "stop" to collect the
	// transcript.
	Action string `json:"action"`
}

// ListenResponse is the reply from POST /api/conversations/{id}/listen.
type ListenResponse struct {
	ConversationID string           `json:"conversation_id"`
	Listening      bool             `json:"listening"`
	Transcript     string           `json:"transcript,omitempty"`
	Message        *storage.Message `json:"message,omitempty"`
}

// handleVoiceListen handles POST /api/conversations/{id}/listen.
//
// Recording is a start/stop pair: "start" begins listening, "stop"
// collects the transcript and appends it to the session as a user
// message, ready to be sent through /api/chat.
func (s *Server) handleVoiceListen(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "No live session for conversation: "+id)
		return
	}

	s.mu.RLock()
	controller := s.voice
	s.mu.RUnlock()

	if controller == nil || !controller.CanListen() {
		s.writeError(w, http.StatusServiceUnavailable, "Speech recognition is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	var req ListenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	switch req.Action {
	case "start":
		if err := controller.StartRecording(); err != nil {
			if errors.Is(err, voice.ErrAlreadyRecording) {
				s.writeError(w, http.StatusConflict, "Recording already in progress")
				return
			}
			log.Printf("VOICE_LISTEN_ERROR | conversation=%s error=%v", id, err)
			s.writeError(w, http.StatusInternalServerError, "Failed to start recording")
			return
		}
		s.writeJSON(w, http.StatusOK, ListenResponse{ConversationID: id, Listening: true})

	case "stop":
		transcript, err := controller.StopRecording()
		switch {
		case errors.Is(err, voice.ErrNotRecording):
			s.writeError(w, http.StatusConflict, "No recording in progress")
			return
		case errors.Is(err, voice.ErrNoSpeech):
			s.writeError(w, http.StatusUnprocessableEntity, "No speech detected")
			return
		case err != nil:
			log.Printf("VOICE_LISTEN_ERROR | conversation=%s error=%v", id, err)
			s.writeError(w, http.StatusInternalServerError, "Failed to transcribe recording")
			return
		}

		msg := sess.Append("user", transcript)
		s.writeJSON(w, http.StatusOK, ListenResponse{
			ConversationID: id,
			Transcript:     transcript,
			Message:        &msg,
		})

	default:
		s.writeError(w, http.StatusBadRequest, `Action must be "start" or "stop"`)
	}
}

// ============================================================================
// CONVERSATION HANDLERS
// ============================================================================

// ListResponse is the reply from GET /api/conversations.
type ListResponse struct {
	Conversations []storage.ConversationMeta `json:"conversations"`
	Count         int                        `json:"count"`
}

// handleListConversations handles GET /api/conversations.
// An optional q parameter searches titles and message content; limit caps
// the result count.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	store, ok := s.requireStore(w)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var metas []storage.ConversationMeta
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		metas, err = store.Search(q, limit)
	} else {
		metas, err = store.List(limit)
	}
	if err != nil {
		log.Printf("LIST_ERROR | error=%v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	if metas == nil {
		metas = []storage.ConversationMeta{}
	}
	s.writeJSON(w, http.StatusOK, ListResponse{Conversations: metas, Count: len(metas)})
}

// handleGetConversation handles GET /api/conversations/{id}.
// Live sessions take precedence over the store so unsaved messages are
// visible.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if sess := s.sessions.Get(id); sess != nil {
		s.writeJSON(w, http.StatusOK, sess.Snapshot())
		return
	}

	store, ok := s.requireStore(w)
	if !ok {
		return
	}

	conv, err := store.Load(id)
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotFound) {
			s.writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		log.Printf("LOAD_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	s.writeJSON(w, http.StatusOK, conv)
}

// handleSaveConversation handles POST /api/conversations/{id}/save.
func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sess := s.sessions.Get(id)
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "No live session for this conversation")
		return
	}

	store, ok := s.requireStore(w)
	if !ok {
		return
	}

	savedID, err := store.Save(sess.Snapshot())
	if err != nil {
		log.Printf("SAVE_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to save conversation")
		return
	}
	sess.MarkClean()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": savedID,
		"saved":           true,
		"message_count":   sess.Len(),
	})
}

// handleDeleteConversation handles DELETE /api/conversations/{id}.
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	store, ok := s.requireStore(w)
	if !ok {
		return
	}

	err := store.Delete(id)
	if err != nil && !errors.Is(err, storage.ErrConversationNotFound) {
		log.Printf("DELETE_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}

	// A live session may exist even when nothing was stored yet.
	live := s.sessions.Get(id) != nil
	s.sessions.Remove(id)

	if err != nil && !live {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": id,
		"deleted":         true,
	})
}

// handleExportConversation handles GET /api/conversations/{id}/export.
func (s *Server) handleExportConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "txt"
	}

	messages, err := s.conversationMessages(id)
	if err != nil {
		if errors.Is(err, storage.ErrConversationNotFound) {
			s.writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		log.Printf("EXPORT_LOAD_ERROR | conversation=%s error=%v", id, err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	payload, mime, err := export.Export(messages, format, id)
	if err != nil {
		var unsupported *export.ErrUnsupportedFormat
		if errors.As(err, &unsupported) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format %q; supported: %s", format, strings.Join(export.SupportedFormats, ", ")))
			return
		}
		log.Printf("EXPORT_ERROR | conversation=%s format=%s error=%v", id, format, err)
		s.writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+extensionFor(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// conversationMessages resolves messages from the live session first,
// then the store.
func (s *Server) conversationMessages(id string) ([]storage.Message, error) {
	if sess := s.sessions.Get(id); sess != nil {
		return sess.Messages(), nil
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return nil, storage.ErrConversationNotFound
	}

	conv, err := store.Load(id)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

// extensionFor maps a format name to a download extension. PDF exports
// carry an HTML payload, so they download as HTML.
func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case "pdf", "html":
		return ".html"
	case "json":
		return ".json"
	case "csv":
		return ".csv"
	default:
		return ".txt"
	}
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	GroqStatus    string `json:"groq_status"`
	StorageStatus string `json:"storage_status"`
	LiveSessions  int    `json:"live_sessions"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:       "ok",
		Version:      Version,
		LiveSessions: s.sessions.Len(),
	}

	s.mu.RLock()
	client := s.client
	store := s.store
	s.mu.RUnlock()

	if client != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := client.CheckReachable(ctx); err == nil {
			health.GroqStatus = "ok"
		} else {
			health.GroqStatus = "unavailable"
			health.Status = "degraded"
		}
	} else {
		health.GroqStatus = "not_configured"
		health.Status = "degraded"
	}

	if store != nil {
		if _, err := store.GetStats(); err == nil {
			health.StorageStatus = "ok"
		} else {
			health.StorageStatus = "unavailable"
			health.Status = "degraded"
		}
	} else {
		health.StorageStatus = "not_configured"
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// STATS HANDLER
// ============================================================================

// StatsResponse represents the usage statistics response.
type StatsResponse struct {
	TotalRequests int64 `json:"total_requests"`
	ChatRequests  int64 `json:"chat_requests"`
	ModelErrors   int64 `json:"model_errors"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	LiveSessions  int   `json:"live_sessions"`

	Conversations int   `json:"conversations"`
	Messages      int   `json:"messages"`
	DatabaseBytes int64 `json:"database_bytes"`
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, chats, modelErrs := s.stats.Snapshot()

	resp := StatsResponse{
		TotalRequests: total,
		ChatRequests:  chats,
		ModelErrors:   modelErrs,
		UptimeSeconds: int64(s.stats.Uptime().Seconds()),
		LiveSessions:  s.sessions.Len(),
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store != nil {
		if st, err := store.GetStats(); err == nil {
			resp.Conversations = st.TotalConversations
			resp.Messages = st.TotalMessages
			resp.DatabaseBytes = st.DatabaseSizeBytes
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, saving dirty sessions first.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	s.saveDirtySessions()

	s.mu.RLock()
	controller := s.voice
	s.mu.RUnlock()
	if controller != nil {
		controller.Shutdown()
	}

	return s.server.Shutdown(ctx)
}

// saveDirtySessions persists every live session with unsaved messages.
func (s *Server) saveDirtySessions() {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return
	}

	for _, meta := range s.liveSessions() {
		if !meta.IsDirty() {
			continue
		}
		if _, err := store.Save(meta.Snapshot()); err != nil {
			log.Printf("SHUTDOWN_SAVE_ERROR | conversation=%s error=%v", meta.ConversationID(), err)
			continue
		}
		meta.MarkClean()
	}
}

// liveSessions snapshots the registry contents.
func (s *Server) liveSessions() []*session.Session {
	var out []*session.Session
	s.sessions.Range(func(sess *session.Session) {
		out = append(out, sess)
	})
	return out
}

// ============================================================================
// HELPERS
// ============================================================================

// maxBodyBytes returns the configured request body cap.
func (s *Server) maxBodyBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxBody
}

// requireStore fetches the store or answers 503.
func (s *Server) requireStore(w http.ResponseWriter) (*storage.Store, bool) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return nil, false
	}
	return store, true
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
