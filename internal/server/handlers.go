package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/govlk/rag-chatbot/internal/extract"
	"github.com/govlk/rag-chatbot/internal/ingest"
	"github.com/govlk/rag-chatbot/internal/prompt"
	"github.com/govlk/rag-chatbot/internal/storage"
)

const (
	// embedTimeout bounds embedding and vector-store calls.
	embedTimeout = 15 * time.Second

	// generateTimeout bounds LLM generation, typically the slowest step.
	generateTimeout = 30 * time.Second

	// maxUploadBytes caps PDF upload size.
	maxUploadBytes = 20 << 20
)

type addDocumentRequest struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

type queryRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type queryResponse struct {
	Results []storage.SearchResult `json:"results"`
}

type chatRequest struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type uploadResponse struct {
	Filename        string `json:"filename"`
	ChunksProcessed int    `json:"chunks_processed"`
	TotalTextLength int    `json:"total_text_length"`
	DocumentID      string `json:"document_id"`
	UploadedToCloud bool   `json:"uploaded_to_cloud"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "RAG backend running with Gemini + Qdrant",
	})
}

// handleAddDocument stores one pre-chunked unit of text directly, without
// running the chunker.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "id and text are required")
		return
	}
	if req.Metadata == nil {
		req.Metadata = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), embedTimeout)
	defer cancel()

	embedding, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		s.logger.Error("add_document embedding failed", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("embedding failed: %v", err))
		return
	}

	err = s.store.Add(ctx,
		[]string{req.ID},
		[]string{req.Text},
		[][]float32{embedding},
		[]map[string]any{req.Metadata},
	)
	if err != nil {
		s.logger.Error("add_document store failed", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("store failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Document added to vector store"})
}

// handleUploadPDF runs the full ingestion pipeline on an uploaded PDF.
func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	text, err := extract.PDF(data)
	if err != nil {
		if errors.Is(err, extract.ErrNoText) {
			writeError(w, http.StatusBadRequest, "no text could be extracted from the PDF")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse PDF: %v", err))
		return
	}

	query := r.URL.Query()
	doc := ingest.Document{
		Text:     text,
		Filename: header.Filename,
		Title:    query.Get("title"),
		Category: query.Get("category"),
		Source:   query.Get("source"),
	}
	if doc.Title == "" {
		doc.Title = header.Filename[:len(header.Filename)-len(".pdf")]
	}

	result, err := s.pipeline.Ingest(r.Context(), doc)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyDocument) {
			writeError(w, http.StatusBadRequest, "document contains no text")
			return
		}
		s.logger.Error("pdf ingestion failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("ingestion failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Filename:        header.Filename,
		ChunksProcessed: result.ChunksProcessed,
		TotalTextLength: result.TotalTextLength,
		DocumentID:      result.DocumentID,
		UploadedToCloud: true,
	})
}

// handleQuery returns raw nearest-neighbor results for a text query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), embedTimeout)
	defer cancel()

	embedding, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("embedding failed: %v", err))
		return
	}

	results, err := s.store.Query(ctx, embedding, req.TopK)
	if err != nil {
		s.logger.Error("vector query failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
		return
	}
	if results == nil {
		results = []storage.SearchResult{}
	}

	writeJSON(w, http.StatusOK, queryResponse{Results: results})
}

// handleChat answers a question using retrieval, session memory, and the
// generator. The response is always 200 with answer text; provider
// failures surface as an apology answer, not an HTTP error.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sessionKey := s.sessionKey(r, req.SessionID)
	s.memory.Append(sessionKey, "User: "+req.Question)

	answer := s.answerQuestion(r.Context(), req.Question, req.TopK, sessionKey)

	s.memory.Append(sessionKey, "Assistant: "+answer)
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

// answerQuestion runs retrieve → assemble → generate for one turn. Memory
// is read after the question append, so the current question is part of
// the conversation section.
func (s *Server) answerQuestion(ctx context.Context, question string, topK int, sessionKey string) string {
	retrieveCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	docs, err := s.retriever.Retrieve(retrieveCtx, question, topK)
	cancel()
	if err != nil {
		return s.answerer.Apology(err)
	}

	assembled := prompt.Assemble("", docs, s.memory.Get(sessionKey), question)

	generateCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	return s.answerer.Answer(generateCtx, assembled)
}

// sessionKey prefers the explicit session token (header, then body); the
// caller's address is only a fallback for clients that send neither, and
// is not a reliable identity behind NAT or proxies.
func (s *Server) sessionKey(r *http.Request, bodySessionID string) string {
	if key := r.Header.Get("X-Session-ID"); key != "" {
		return key
	}
	if bodySessionID != "" {
		return bodySessionID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.logger.Debug("no session token supplied, falling back to client address", "addr", host)
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
