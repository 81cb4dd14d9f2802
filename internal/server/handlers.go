package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TuanHung1810/ChatBox-AI/internal/metrics"
	"github.com/TuanHung1810/ChatBox-AI/pkg/chat"
)

var (
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}
	csvExtensions   = map[string]bool{".csv": true}
)

// handleChat handles plain text messages.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		metrics.RecordRequest("text", "rejected", time.Since(start))
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "default"
	}

	response := s.conversation.Respond(r.Context(), userID, message)
	metrics.RecordRequest("text", "success", time.Since(start))

	writeJSON(w, http.StatusOK, chatResponse{
		Success:     true,
		Response:    response,
		UserMessage: message,
	})
}

// handleImageUpload accepts an image file plus an optional caption.
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()

	file, header, userID, caption, ok := s.parseUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !allowedFile(header.Filename, imageExtensions) {
		metrics.RecordRequest("image", "rejected", time.Since(start))
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	storedName, err := s.storeUpload(header.Filename, data)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store image upload")
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	metrics.RecordUpload("image")

	response := s.conversation.AnalyzeImage(r.Context(), userID, chat.Upload{
		Data:     data,
		Caption:  caption,
		Name:     header.Filename,
		StoredAs: storedName,
	})
	metrics.RecordRequest("image", "success", time.Since(start))

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  true,
		Response: response,
		Filename: storedName,
	})
}

// handleCSVUpload accepts a CSV file or a remote URL to fetch.
func (s *Server) handleCSVUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.options.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = "default"
	}
	caption := strings.TrimSpace(r.FormValue("message"))

	var data []byte
	var storedName string

	switch {
	case hasFormFile(r, "file"):
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		defer file.Close()

		if !allowedFile(header.Filename, csvExtensions) {
			metrics.RecordRequest("csv", "rejected", time.Since(start))
			writeError(w, http.StatusBadRequest, "Invalid file type")
			return
		}

		data, err = io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read file")
			return
		}

		storedName, err = s.storeUpload(header.Filename, data)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to store CSV upload")
			writeError(w, http.StatusInternalServerError, "Failed to store file")
			return
		}

	case strings.TrimSpace(r.FormValue("url")) != "":
		path, err := s.fetcher.FetchFromURL(r.Context(), r.FormValue("url"))
		if err != nil {
			metrics.RecordRequest("csv", "rejected", time.Since(start))
			writeError(w, http.StatusBadRequest, "Cannot download CSV from URL: "+err.Error())
			return
		}

		data, err = os.ReadFile(path)
		if err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Failed to read downloaded CSV")
			writeError(w, http.StatusInternalServerError, "Failed to read downloaded file")
			return
		}
		storedName = filepath.Base(path)

	default:
		writeError(w, http.StatusBadRequest, "Please provide CSV file or URL")
		return
	}

	metrics.RecordUpload("csv")

	response := s.conversation.AnalyzeTable(r.Context(), userID, chat.Upload{
		Data:     data,
		Caption:  caption,
		Name:     storedName,
		StoredAs: storedName,
	})
	metrics.RecordRequest("csv", "success", time.Since(start))

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:  true,
		Response: response,
		Filename: storedName,
	})
}

// handleHistory returns the full conversation for a user.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Success: true,
		History: s.conversation.History(userID),
	})
}

// handleClear deletes a user's conversation.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/clear/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	s.conversation.Clear(userID)
	writeJSON(w, http.StatusOK, statusResponse{Success: true})
}

// handleServeUpload serves stored upload files.
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/uploads/")
	if name == "" || name != filepath.Base(name) {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	http.ServeFile(w, r, filepath.Join(s.options.UploadDir, name))
}

// parseUpload reads the multipart form shared by the upload endpoints.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.options.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return nil, nil, "", "", false
	}
	if header.Filename == "" {
		file.Close()
		writeError(w, http.StatusBadRequest, "No file selected")
		return nil, nil, "", "", false
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = "default"
	}

	return file, header, userID, strings.TrimSpace(r.FormValue("message")), true
}

// storeUpload persists upload bytes under a unique sanitized filename
// and returns that filename.
func (s *Server) storeUpload(originalName string, data []byte) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(originalName)
	if err := os.WriteFile(filepath.Join(s.options.UploadDir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func hasFormFile(r *http.Request, field string) bool {
	if r.MultipartForm == nil {
		return false
	}
	files := r.MultipartForm.File[field]
	return len(files) > 0 && files[0].Filename != ""
}

func allowedFile(name string, allowed map[string]bool) bool {
	return allowed[strings.ToLower(filepath.Ext(name))]
}

// sanitizeFilename strips path components and any character outside
// [A-Za-z0-9._-].
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
