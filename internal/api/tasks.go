package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"reelgen/internal/fileutil"
	"reelgen/internal/queue"
	"reelgen/internal/services"
	"reelgen/internal/task"
)

// Multipart field names accepted for input images.
var imageFields = []string{"images", "images[]"}

const multipartMemory = 8 << 20

func (s *Server) createTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				WriteError(w, r, http.StatusRequestEntityTooLarge, "upload too large", "TOO_LARGE")
				return
			}
			WriteError(w, r, http.StatusBadRequest, "invalid multipart form", "BAD_REQUEST")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		raw := strings.TrimSpace(r.FormValue("options"))
		if raw == "" {
			WriteError(w, r, http.StatusBadRequest, "options field is required", "BAD_REQUEST")
			return
		}
		var opts TaskOptions
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			WriteError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid options: %v", err), "BAD_REQUEST")
			return
		}

		files := imageFiles(r.MultipartForm)
		if len(files) == 0 {
			WriteError(w, r, http.StatusBadRequest, "at least one image is required", "BAD_REQUEST")
			return
		}
		for _, fh := range files {
			if _, err := task.NormalizeExtension(filepath.Ext(fh.Filename)); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
		}

		ctx := r.Context()
		id, err := s.cfg.Service.CreateTask(ctx, opts.ToOptions())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		assets := make([]string, 0, len(files))
		for _, fh := range files {
			path, err := s.cfg.Service.AddAsset(ctx, id, filepath.Ext(fh.Filename))
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			if err := storeUpload(fh, path); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			assets = append(assets, filepath.Base(path))
		}

		started := wantsRun(r)
		if started {
			s.startRun(ctx, id)
		}
		WriteJSON(w, http.StatusCreated, CreateTaskResponse{ID: id, Assets: assets, Started: started})
	}
}

// runTaskHandler starts the pipeline in the background and answers 202. With
// ?wait=1 the run happens inside the request and its error is returned.
func (s *Server) runTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := s.cfg.Service.Status(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		detail := FromDocument(doc)
		if detail.Finished {
			WriteJSON(w, http.StatusOK, RunTaskResponse{ID: id, Finished: true, Task: detail})
			return
		}

		if !truthy(r.URL.Query().Get("wait")) {
			s.startRun(r.Context(), id)
			WriteJSON(w, http.StatusAccepted, RunTaskResponse{ID: id, Started: true, Task: detail})
			return
		}

		if err := s.cfg.Service.Run(r.Context(), id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		doc, err = s.cfg.Service.Status(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		detail = FromDocument(doc)
		WriteJSON(w, http.StatusOK, RunTaskResponse{ID: id, Started: true, Finished: detail.Finished, Task: detail})
	}
}

func (s *Server) getTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := s.cfg.Service.Status(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, FromDocument(doc))
	}
}

func (s *Server) finalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		path, err := s.cfg.Service.FinalArtifact(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "reel-"+id+".mp4"))
		http.ServeFile(w, r, path)
	}
}

func (s *Server) listTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []queue.Status
		for _, value := range r.URL.Query()["status"] {
			for _, part := range strings.Split(value, ",") {
				if strings.TrimSpace(part) == "" {
					continue
				}
				status, err := queue.ParseStatus(part)
				if err != nil {
					WriteError(w, r, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
					return
				}
				statuses = append(statuses, status)
			}
		}
		entries, err := s.cfg.Service.List(r.Context(), statuses...)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, TaskListResponse{Tasks: FromEntries(entries)})
	}
}

func imageFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, field := range imageFields {
		files = append(files, form.File[field]...)
	}
	return files
}

func storeUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return services.WrapStorage(nil, "open upload", fh.Filename, err)
	}
	defer src.Close()
	if _, err := fileutil.WriteReaderAtomic(dst, src, 0o644); err != nil {
		return services.WrapStorage(nil, "store upload", dst, err)
	}
	return nil
}

func wantsRun(r *http.Request) bool {
	return truthy(r.URL.Query().Get("run")) || truthy(r.FormValue("run"))
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
