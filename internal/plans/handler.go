package plans

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/pdf"
	"careerpath-backend/internal/shared/server/respond"
	"careerpath-backend/internal/shared/storage/object"
	"careerpath-backend/internal/shared/util"
)

const (
	defaultMaxUploadBytes = 10 << 20
	// formOverheadBytes leaves room for the questionnaire fields and multipart
	// framing on top of the resume itself.
	formOverheadBytes = 1 << 20
)

// Options configures upload limits.
type Options struct {
	MaxUploadBytes   int64
	AllowedFileTypes []string
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	maxUpload int64
	allowed   map[string]bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, opts Options) *Handler {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	allowed := make(map[string]bool, len(opts.AllowedFileTypes))
	for _, ext := range opts.AllowedFileTypes {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &Handler{Svc: svc, maxUpload: maxUpload, allowed: allowed}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate-plan", h.generatePlan)
	rg.POST("/download-pdf", h.downloadPDF)
}

func (h *Handler) generatePlan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+formOverheadBytes)

	var form generatePlanForm
	if err := c.ShouldBind(&form); err != nil {
		h.bindError(c, err)
		return
	}
	profile := form.profile()
	if missing := profile.Missing(); len(missing) > 0 {
		respondMissing(c, missing)
		return
	}

	resume, ok := h.readResume(c)
	if !ok {
		return
	}
	c.Set("resumeAttached", resume != nil)

	plan, loc, err := h.Svc.GeneratePlan(c.Request.Context(), profile, resume)
	if loc != "" {
		c.Set("storageLocator", loc.String())
	}
	if err != nil {
		var storeErr *object.Error
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, llm.ErrNotConfigured):
			respond.Error(c, http.StatusBadGateway, "generation_error", "plan generation is not configured", nil)
		case errors.Is(err, ErrGeneration):
			respond.Error(c, http.StatusBadGateway, "generation_error", "failed to generate career plan", nil)
		case errors.As(err, &storeErr):
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store resume", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate career plan", nil)
		}
		return
	}

	respond.OK(c, generatePlanResponse{
		Success:     true,
		HTMLPlan:    plan.HTMLPlan,
		UserProfile: plan.UserProfile,
	})
}

// readResume returns the optional resume part. ok is false once an error
// response has been written.
func (h *Handler) readResume(c *gin.Context) (*ResumeUpload, bool) {
	fileHeader, err := c.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
		return nil, false
	}
	if strings.TrimSpace(fileHeader.Filename) == "" && fileHeader.Size == 0 {
		return nil, true
	}

	ext := util.FileExt(fileHeader.Filename)
	if !h.allowed[ext] {
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type",
			fmt.Sprintf("file type %q is not allowed", ext),
			gin.H{"allowed": h.allowedList()})
		return nil, false
	}
	if fileHeader.Size > h.maxUpload {
		h.tooLarge(c)
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
		return nil, false
	}
	if int64(len(data)) > h.maxUpload {
		h.tooLarge(c)
		return nil, false
	}
	return &ResumeUpload{FileName: fileHeader.Filename, Data: data}, true
}

func (h *Handler) downloadPDF(c *gin.Context) {
	var req downloadPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondMissing(c, []string{"html_plan"})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	export, err := h.Svc.ExportPDF(c.Request.Context(), req.HTMLPlan)
	if err != nil {
		var storeErr *object.Error
		switch {
		case errors.Is(err, pdf.ErrEmptyDocument):
			respond.Error(c, http.StatusBadRequest, "validation_error", "html_plan is empty", nil)
		case errors.Is(err, pdf.ErrRender):
			respond.Error(c, http.StatusInternalServerError, "render_error", "failed to render pdf", nil)
		case errors.As(err, &storeErr):
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to store pdf", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export pdf", nil)
		}
		return
	}
	c.Set("storageLocator", export.Locator.String())

	if export.DownloadURL != "" {
		respond.OK(c, downloadLinkResponse{
			Success:     true,
			Filename:    export.FileName,
			DownloadURL: export.DownloadURL,
			Locator:     export.Locator.String(),
			Message:     "PDF generated successfully",
		})
		return
	}
	respond.Attachment(c, "application/pdf", export.FileName, export.Data)
}

func (h *Handler) bindError(c *gin.Context, err error) {
	if isTooLarge(err) {
		h.tooLarge(c)
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, formFieldName(fe.StructField()))
		}
		respondMissing(c, missing)
		return
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid form data", nil)
}

func (h *Handler) tooLarge(c *gin.Context) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("resume exceeds the %d byte limit", h.maxUpload),
		gin.H{"max_bytes": h.maxUpload})
}

func (h *Handler) allowedList() []string {
	out := make([]string, 0, len(h.allowed))
	for ext := range h.allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func respondMissing(c *gin.Context, missing []string) {
	fields := make(map[string]string, len(missing))
	for _, name := range missing {
		fields[name] = "required"
	}
	respond.Error(c, http.StatusBadRequest, "validation_error",
		"missing required fields: "+strings.Join(missing, ", "),
		gin.H{"fields": fields})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
