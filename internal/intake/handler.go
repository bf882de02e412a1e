package intake

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/cgvrzon/arynstal/pkg/logging"
)

const defaultMaxUploadMemory = 32 << 20

// Handler exposes the public contact form endpoint.
type Handler struct {
	service         *Service
	honeypotField   string
	maxUploadMemory int64
	logger          *logging.Logger
}

// NewHandler creates the public intake handler. honeypotField is the name of
// the hidden trap input, typically "website_url".
func NewHandler(service *Service, honeypotField string, maxUploadMemory int64, logger *logging.Logger) *Handler {
	if honeypotField == "" {
		honeypotField = "website_url"
	}
	if maxUploadMemory <= 0 {
		maxUploadMemory = defaultMaxUploadMemory
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:         service,
		honeypotField:   honeypotField,
		maxUploadMemory: maxUploadMemory,
		logger:          logger,
	}
}

type submissionResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SubmitContactForm handles POST /contact requests.
func (h *Handler) SubmitContactForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadMemory); err != nil {
		h.logger.Info("malformed contact form", "error", err)
		writeJSON(w, http.StatusBadRequest, submissionResponse{
			Status:  "error",
			Message: RejectedMessage,
			Errors:  map[string]string{"form": "the form could not be read"},
		})
		return
	}

	sub := Submission{
		Name:             r.FormValue("name"),
		Email:            r.FormValue("email"),
		Phone:            r.FormValue("phone"),
		Location:         r.FormValue("location"),
		Message:          r.FormValue("message"),
		PreferredContact: r.FormValue("preferred_contact"),
		Urgency:          r.FormValue("urgency"),
		Consent:          parseCheckbox(r.FormValue("privacy_accepted")),
		Honeypot:         r.FormValue(h.honeypotField),
		IP:               clientIP(r),
		UserAgent:        r.UserAgent(),
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["fotos"] {
			f, err := fh.Open()
			if err != nil {
				h.logger.Error("failed to open uploaded file", "error", err, "filename", fh.Filename)
				writeJSON(w, http.StatusInternalServerError, submissionResponse{
					Status:  "error",
					Message: FailureMessage,
				})
				return
			}
			defer f.Close()
			sub.Attachments = append(sub.Attachments, Attachment{
				Filename: fh.Filename,
				Size:     fh.Size,
				Content:  f,
			})
		}
	}

	res := h.service.Submit(r.Context(), sub)

	switch res.Outcome {
	case OutcomeCreated, OutcomeBotSuspected:
		// Byte-identical success bodies; the lead id is never exposed here.
		writeJSON(w, http.StatusOK, submissionResponse{Status: "ok", Message: res.Message})
	case OutcomeRateLimited:
		writeJSON(w, http.StatusOK, submissionResponse{Status: "error", Message: res.Message})
	case OutcomeRejected:
		writeJSON(w, http.StatusBadRequest, submissionResponse{
			Status:  "error",
			Message: res.Message,
			Errors:  res.FieldErrors,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, submissionResponse{
			Status:  "error",
			Message: res.Message,
		})
	}
}

// clientIP prefers the first X-Forwarded-For entry so the limiter keys on the
// real client behind a reverse proxy, falling back to the connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
