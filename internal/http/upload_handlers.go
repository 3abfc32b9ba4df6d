package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/services"
)

func (s *Server) AdminUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(services.MaxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Fajl je prazan")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Fajl je prazan")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename, url, err := services.SaveImage(s.Config.UploadDir, header.Filename, contentType, file)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"filename": filename, "url": url})
}

func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, err := services.ResolveUpload(s.Config.UploadDir, filename)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) AdminSystem(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, services.CaptureSystem(s.Config.UploadDir))
}
