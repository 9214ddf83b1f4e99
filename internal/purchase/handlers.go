package purchase

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"tallyscan/internal/extraction"
)

// maxUploadSize caps receipt uploads; high-resolution phone photos can
// run tens of megabytes.
const maxUploadSize = int64(50 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a plain error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes a successful JSON response
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// parseRequest is the wire shape of POST /api/parse
type parseRequest struct {
	Text     string              `json:"text"`
	Template extraction.Template `json:"template"`
}

// parseResponse wraps the extracted record
type parseResponse struct {
	Parsed *extraction.Record `json:"parsed"`
}

// handleParse extracts a record from caller-supplied text and template.
// Missing text is the only rejectable condition: broken or absent
// template fields silently degrade to defaults so template authors can
// iterate against real OCR output.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	record := s.service.Parse(req.Text, req.Template)
	writeJSON(w, http.StatusOK, parseResponse{Parsed: record})
}

// handleUploadPurchase handles receipt upload and extraction
func (s *Server) handleUploadPurchase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		message := "Error parsing form"
		if err.Error() == "http: request body too large" {
			message = "File is too large. Maximum size is 50MB."
		}
		jsonError(w, message, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromFilename(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	templateID := r.FormValue("template_id")

	purchase, err := s.service.ProcessPurchase(header.Filename, data, contentType, templateID)
	if err != nil {
		slog.Error("Error processing purchase", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}

// contentTypeFromFilename guesses a content type when the upload part
// carries none
func contentTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListPurchases returns a list of all purchases
func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.service.ListPurchases()
	if err != nil {
		slog.Error("Error listing purchases", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, purchases)
}

// handleGetPurchase returns a single purchase
func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Purchase ID required", http.StatusBadRequest)
		return
	}
	purchase, err := s.service.GetPurchase(id)
	if err != nil {
		corsError(w, "Purchase not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// handleGetPurchaseFile returns the original uploaded file
func (s *Server) handleGetPurchaseFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Purchase ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetPurchaseFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeletePurchase deletes a purchase
func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Purchase ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeletePurchase(id); err != nil {
		corsError(w, "Error deleting purchase", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// createTemplateRequest is the wire shape of POST /api/templates
type createTemplateRequest struct {
	Name     string              `json:"name"`
	Patterns extraction.Template `json:"patterns"`
}

// handleCreateTemplate stores a named extraction template
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	template, err := s.service.CreateTemplate(req.Name, req.Patterns)
	if err != nil {
		slog.Error("Error creating template", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, template)
}

// handleListTemplates returns a list of all templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates()
	if err != nil {
		slog.Error("Error listing templates", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, templates)
}

// handleGetTemplate returns a single template
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Template ID required", http.StatusBadRequest)
		return
	}
	template, err := s.service.GetTemplate(id)
	if err != nil {
		corsError(w, "Template not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, template)
}

// handleDeleteTemplate deletes a template
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Template ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteTemplate(id); err != nil {
		corsError(w, "Template not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListProducts returns the product catalog
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.service.ListProducts()
	if err != nil {
		slog.Error("Error listing products", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, products)
}
