package server

import (
	"context"

	"github.com/TuanHung1810/ChatBox-AI/pkg/chat"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
)

// Conversation is the core capability the HTTP layer exposes.
type Conversation interface {
	Respond(ctx context.Context, userID, message string) string
	AnalyzeImage(ctx context.Context, userID string, up chat.Upload) string
	AnalyzeTable(ctx context.Context, userID string, up chat.Upload) string
	History(userID string) []session.Turn
	Clear(userID string)
}

// Fetcher downloads remote CSV files into the upload directory.
type Fetcher interface {
	FetchFromURL(ctx context.Context, url string) (string, error)
}

// Options configures the HTTP server.
type Options struct {
	Host           string
	Port           int
	UploadDir      string
	MaxUploadBytes int64
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Success     bool   `json:"success"`
	Response    string `json:"response"`
	UserMessage string `json:"user_message"`
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Filename string `json:"filename,omitempty"`
}

type historyResponse struct {
	Success bool           `json:"success"`
	History []session.Turn `json:"history"`
}

type statusResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
