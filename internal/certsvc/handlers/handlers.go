package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/gautampatil/credify-services/internal/certsvc/csvdata"
	"github.com/gautampatil/credify-services/internal/certsvc/models"
	"github.com/gautampatil/credify-services/internal/certsvc/service"
	"github.com/gautampatil/credify-services/internal/certsvc/store"
)

// maxUploadSize bounds one CSV upload (32MB).
const maxUploadSize = 32 << 20

const internalErrorMsg = "Internal Server Error"

type Handler struct {
	service   *service.CertService
	uploadDir string
}

func NewHandler(svc *service.CertService, uploadDir string) *Handler {
	return &Handler{
		service:   svc,
		uploadDir: uploadDir,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"error": msg})
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"connected": h.service.Ready()})
}

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "credify certificate service is running"})
}

// EchoHandler returns the posted JSON body back to the caller.
func (h *Handler) EchoHandler(w http.ResponseWriter, r *http.Request) {
	var data interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"Response": data})
}

func (h *Handler) GetCertHandler(w http.ResponseWriter, r *http.Request) {
	certId := chi.URLParam(r, "certId")

	cert, err := h.service.GetByID(r.Context(), certId)
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Errorf("Error fetching certificate %s: %v", certId, err)
		h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		return
	}
	if cert == nil {
		h.writeError(w, http.StatusNotFound, "certificate not found")
		return
	}

	h.writeJSON(w, http.StatusOK, cert)
}

func (h *Handler) CreateCertHandler(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cert, err := models.FromFields(fields)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.service.Issue(r.Context(), cert); err != nil {
		log.Errorf("Error adding certificate: %v", err)
		h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		return
	}

	h.writeJSON(w, http.StatusCreated, cert)
}

// UploadHandler receives a multipart CSV upload, saves it under the
// client's original filename, validates it and imports its rows. The
// saved file is gone by the time the response is written unless the
// import itself failed mid-stream.
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("csvFile")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		log.Errorf("Error creating upload dir %s: %v", h.uploadDir, err)
		h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		return
	}

	path := filepath.Join(h.uploadDir, filepath.Base(header.Filename))
	if err := saveUpload(file, path); err != nil {
		log.Errorf("Error saving upload %s: %v", path, err)
		h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		return
	}

	jobId := uuid.NewString()
	log.Infof("upload job %s: processing %s", jobId, path)

	count, err := h.service.ImportCSV(r.Context(), path)
	if err != nil {
		var verr *csvdata.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Reason)
		case errors.Is(err, csvdata.ErrCleanup):
			// rows are persisted, only the file removal failed
			log.Errorf("upload job %s: %v", jobId, err)
			h.writeJSON(w, http.StatusCreated, map[string]string{"msg": "CSV file processed successfully"})
		default:
			log.Errorf("upload job %s failed after %d rows: %v", jobId, count, err)
			h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		}
		return
	}

	log.Infof("upload job %s: %d certificates imported", jobId, count)
	h.writeJSON(w, http.StatusCreated, map[string]string{"msg": "CSV file processed successfully"})
}

func (h *Handler) CertsByClubHandler(w http.ResponseWriter, r *http.Request) {
	filter := map[string]string{
		"event_club": chi.URLParam(r, "event_club"),
	}
	h.listCerts(w, r, filter)
}

func (h *Handler) CertsByClubAndEventHandler(w http.ResponseWriter, r *http.Request) {
	filter := map[string]string{
		"event_club": chi.URLParam(r, "club_name"),
		"event_name": chi.URLParam(r, "event_name"),
	}
	h.listCerts(w, r, filter)
}

func (h *Handler) listCerts(w http.ResponseWriter, r *http.Request, filter map[string]string) {
	certs, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Errorf("Error fetching certificates %v: %v", filter, err)
		h.writeError(w, http.StatusInternalServerError, internalErrorMsg)
		return
	}
	if len(certs) == 0 {
		h.writeError(w, http.StatusNotFound, "no certificates found")
		return
	}

	h.writeJSON(w, http.StatusOK, certs)
}

func saveUpload(src io.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}

	return out.Close()
}
