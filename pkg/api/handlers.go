package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/message"
	"github.com/ssargent/msgstore/pkg/service"
)

// Server holds the API server state
type Server struct {
	svc     service.MessageService
	storage StorageStats
	config  ServerConfig
	metrics *Metrics
	log     *slog.Logger
}

// NewServer creates a new API server
func NewServer(svc service.MessageService, config ServerConfig, metrics *Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		svc:     svc,
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

// WithStorage attaches a source of durable memory statistics
func (s *Server) WithStorage(storage StorageStats) *Server {
	s.storage = storage
	return s
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleGetMessage godoc
//
//	@Summary		Get a message
//	@Description	Retrieve the message stored under id
//	@Tags			messages
//	@Produce		json
//	@Param			id	path		integer	true	"Message id"
//	@Success		200	{object}	APIResponse{data=message.Message}
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/messages/{id} [get]
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := s.svc.GetMessage(r.Context(), id)
	s.metrics.RecordStoreOperation("get", err == nil, time.Since(start))
	if err != nil {
		s.sendServiceError(w, r, "get", err)
		return
	}
	sendSuccess(w, msg)
}

// handleAddMessage godoc
//
//	@Summary		Add a message
//	@Description	Store a new message under a freshly allocated id
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		message.Payload	true	"Message content"
//	@Success		201		{object}	APIResponse{data=message.Message}
//	@Failure		400		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/messages [post]
func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := s.svc.AddMessage(r.Context(), payload)
	s.metrics.RecordStoreOperation("add", err == nil, time.Since(start))
	if err != nil {
		s.sendServiceError(w, r, "add", err)
		return
	}
	w.Header().Set("Location", "/api/v1/messages/"+strconv.FormatUint(msg.ID, 10))
	sendJSON(w, http.StatusCreated, msg)
}

// handleUpdateMessage godoc
//
//	@Summary		Update a message
//	@Description	Replace the content of an existing message
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		integer			true	"Message id"
//	@Param			payload	body		message.Payload	true	"Message content"
//	@Success		200		{object}	APIResponse{data=message.Message}
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/messages/{id} [put]
func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := s.svc.UpdateMessage(r.Context(), id, payload)
	s.metrics.RecordStoreOperation("update", err == nil, time.Since(start))
	if err != nil {
		s.sendServiceError(w, r, "update", err)
		return
	}
	sendSuccess(w, msg)
}

// handleDeleteMessage godoc
//
//	@Summary		Delete a message
//	@Description	Remove the message stored under id and return it
//	@Tags			messages
//	@Produce		json
//	@Param			id	path		integer	true	"Message id"
//	@Success		200	{object}	APIResponse{data=message.Message}
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/messages/{id} [delete]
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	msg, err := s.svc.DeleteMessage(r.Context(), id)
	s.metrics.RecordStoreOperation("delete", err == nil, time.Since(start))
	if err != nil {
		s.sendServiceError(w, r, "delete", err)
		return
	}
	sendSuccess(w, msg)
}

// handleListMessages godoc
//
//	@Summary		List messages
//	@Description	List messages in ascending id order
//	@Tags			messages
//	@Produce		json
//	@Param			after	query		integer	false	"Return ids strictly greater than this"
//	@Param			limit	query		integer	false	"Maximum number of messages"
//	@Success		200		{object}	APIResponse{data=MessageList}
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/messages [get]
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			sendError(w, "Invalid after parameter", http.StatusBadRequest)
			return
		}
		after = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	start := time.Now()
	messages, err := s.svc.ListMessages(r.Context(), after, limit)
	s.metrics.RecordStoreOperation("list", err == nil, time.Since(start))
	if err != nil {
		s.sendServiceError(w, r, "list", err)
		return
	}

	resp := MessageList{Messages: messages}
	if len(messages) > 0 && len(messages) >= service.EffectiveLimit(limit) {
		resp.Next = messages[len(messages)-1].ID
	}
	sendSuccess(w, resp)
}

// handleStats godoc
//
//	@Summary		Get store statistics
//	@Description	Record count, last allocated id and durable memory usage
//	@Tags			diagnostics
//	@Produce		json
//	@Success		200	{object}	APIResponse{data=StatsResponse}
//	@Failure		500	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.sendServiceError(w, r, "stats", err)
		return
	}

	resp := StatsResponse{Stats: stats}
	if s.storage != nil {
		mem := s.storage.Stats()
		resp.DiskSpaceBytes = mem.DiskSpaceUsage
		resp.Compactions = mem.Compactions
		resp.Flushes = mem.Flushes
	}
	s.metrics.UpdateStoreStats(stats.Messages, stats.LastID, resp.DiskSpaceBytes)
	sendSuccess(w, resp)
}

// StatsResponse is the body of the stats endpoint
type StatsResponse struct {
	service.Stats
	DiskSpaceBytes uint64 `json:"disk_space_bytes"`
	Compactions    int64  `json:"compactions"`
	Flushes        int64  `json:"flushes"`
}

func (s *Server) sendServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var notFound *service.NotFoundError
	switch {
	case errors.As(err, &notFound):
		sendError(w, notFound.Msg, http.StatusNotFound)
	case errors.Is(err, codec.ErrRecordTooLarge):
		sendError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		s.log.Error("message operation failed",
			"op", op,
			"request_id", RequestID(r.Context()),
			"error", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		sendError(w, "Invalid message id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request) (message.Payload, bool) {
	var payload message.Payload
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return payload, false
		}
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return payload, false
	}
	return payload, true
}
