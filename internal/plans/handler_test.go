package plans

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/shared/storage/object"
	"careerpath-backend/internal/shared/storage/object/local"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupRouter(svc *Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, opts).RegisterRoutes(r.Group("/api"))
	return r
}

func defaultOptions() Options {
	return Options{MaxUploadBytes: 10 << 20, AllowedFileTypes: []string{".pdf", ".doc", ".docx", ".txt"}}
}

func postForm(t *testing.T, router http.Handler, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, file)
	req := httptest.NewRequest(http.MethodPost, "/api/generate-plan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.False(t, env.Success)
	return env
}

func TestGeneratePlanExampleProfile(t *testing.T) {
	client := &fakeLLM{content: "<div><h2>Executive Summary</h2></div>"}
	router := setupRouter(newTestService(newMemStore(), client, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success     bool           `json:"success"`
		HTMLPlan    string         `json:"html_plan"`
		UserProfile map[string]any `json:"user_profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.HTMLPlan)
	assert.Equal(t, "beginner", resp.UserProfile["experience_level"])
	assert.Equal(t, "QA tester", resp.UserProfile["job_role"])
	assert.Equal(t, []any{"ML"}, resp.UserProfile["interests"])
	assert.Equal(t, "visual", resp.UserProfile["learning_style"])
	assert.Equal(t, "5h/week", resp.UserProfile["time_commitment"])
	assert.Equal(t, "switch to ML engineering", resp.UserProfile["goals"])
	assert.Equal(t, "", resp.UserProfile["current_skills"])
	assert.Equal(t, 1, client.calls())
}

func TestGeneratePlanMissingRequiredFieldSkipsGenerator(t *testing.T) {
	for _, field := range []string{"experience_level", "job_role", "interests", "learning_style", "time_commitment", "goals"} {
		t.Run(field, func(t *testing.T) {
			client := &fakeLLM{content: "<p>plan</p>"}
			router := setupRouter(newTestService(newMemStore(), client, &fakeRenderer{}), defaultOptions())

			fields := exampleFields()
			delete(fields, field)
			rec := postForm(t, router, fields, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotContains(t, rec.Body.String(), "html_plan")
			env := decodeError(t, rec)
			assert.Equal(t, "validation_error", env.Error.Code)
			fieldsDetail, _ := env.Error.Details["fields"].(map[string]any)
			assert.Equal(t, "required", fieldsDetail[field])
			assert.Equal(t, 0, client.calls())
		})
	}
}

func TestGeneratePlanBlankRequiredField(t *testing.T) {
	client := &fakeLLM{content: "<p>plan</p>"}
	router := setupRouter(newTestService(newMemStore(), client, &fakeRenderer{}), defaultOptions())

	fields := exampleFields()
	fields["interests"] = " , "
	fields["goals"] = "   "
	rec := postForm(t, router, fields, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeError(t, rec)
	fieldsDetail, _ := env.Error.Details["fields"].(map[string]any)
	assert.Contains(t, fieldsDetail, "interests")
	assert.Contains(t, fieldsDetail, "goals")
	assert.Equal(t, 0, client.calls())
}

func TestGeneratePlanWithResume(t *testing.T) {
	store := newMemStore()
	client := &fakeLLM{content: "<p>plan</p>"}
	router := setupRouter(newTestService(store, client, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), &filePart{name: "resume.txt", data: []byte("Manual tester for 3 years")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, store.count(object.CategoryUploads))
	assert.Contains(t, client.lastUserMessage(), "Manual tester for 3 years")
}

func TestGeneratePlanResumeNameWithDoubleDots(t *testing.T) {
	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	client := &fakeLLM{content: "<p>plan</p>"}
	router := setupRouter(newTestService(store, client, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), &filePart{name: "CV..final.txt", data: []byte("Manual tester for 3 years")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, client.calls())
	assert.Contains(t, client.lastUserMessage(), "Manual tester for 3 years")
}

func TestGeneratePlanCorruptResumeIsNonFatal(t *testing.T) {
	client := &fakeLLM{content: "<p>plan</p>"}
	router := setupRouter(newTestService(newMemStore(), client, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), &filePart{name: "resume.docx", data: []byte("definitely not a zip")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, client.lastUserMessage(), "Resume/CV Summary")
}

func TestGeneratePlanRejectsUnsupportedFileType(t *testing.T) {
	store := newMemStore()
	client := &fakeLLM{content: "<p>plan</p>"}
	router := setupRouter(newTestService(store, client, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), &filePart{name: "photo.png", data: []byte{0x89, 'P', 'N', 'G'}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "unsupported_file_type", env.Error.Code)
	assert.Equal(t, 0, store.count(object.CategoryUploads))
	assert.Equal(t, 0, client.calls())
}

func TestGeneratePlanRejectsOversizedFile(t *testing.T) {
	store := newMemStore()
	client := &fakeLLM{content: "<p>plan</p>"}
	opts := defaultOptions()
	opts.MaxUploadBytes = 64
	router := setupRouter(newTestService(store, client, &fakeRenderer{}), opts)

	// Well-formed text, rejected on size alone.
	data := bytes.Repeat([]byte("a"), 65)
	rec := postForm(t, router, exampleFields(), &filePart{name: "resume.txt", data: data})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "file_too_large", env.Error.Code)
	assert.Equal(t, 0, store.count(object.CategoryUploads))
	assert.Equal(t, 0, client.calls())
}

func TestGeneratePlanRejectsBodyOverLimit(t *testing.T) {
	client := &fakeLLM{content: "<p>plan</p>"}
	opts := defaultOptions()
	opts.MaxUploadBytes = 16
	router := setupRouter(newTestService(newMemStore(), client, &fakeRenderer{}), opts)

	data := bytes.Repeat([]byte("b"), formOverheadBytes+1024)
	rec := postForm(t, router, exampleFields(), &filePart{name: "resume.txt", data: data})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, client.calls())
}

func TestGeneratePlanGenerationErrors(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{name: "upstream failure", client: &fakeLLM{err: errors.New("openai http status 503")}},
		{name: "not configured", client: llm.PlaceholderClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(newTestService(newMemStore(), tt.client, &fakeRenderer{}), defaultOptions())
			rec := postForm(t, router, exampleFields(), nil)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			env := decodeError(t, rec)
			assert.Equal(t, "generation_error", env.Error.Code)
			assert.NotContains(t, rec.Body.String(), "html_plan")
		})
	}
}

func TestGeneratePlanStorageError(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	router := setupRouter(newTestService(store, &fakeLLM{content: "<p>x</p>"}, &fakeRenderer{}), defaultOptions())

	rec := postForm(t, router, exampleFields(), &filePart{name: "resume.txt", data: []byte("x")})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage_error", decodeError(t, rec).Error.Code)
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDownloadPDFLocalAttachment(t *testing.T) {
	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	pdfBytes := []byte("%PDF-1.4 plan")
	router := setupRouter(newTestService(store, &fakeLLM{}, &fakeRenderer{out: pdfBytes}), defaultOptions())

	rec := postJSON(router, "/api/download-pdf", `{"html_plan":"<h2>Timeline</h2>","user_profile":{"job_role":"QA tester"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="ai_career_plan_20260115_093000_`)
	assert.Equal(t, pdfBytes, rec.Body.Bytes())
}

func TestDownloadPDFCloudLink(t *testing.T) {
	store := presigningStore{newMemStore()}
	router := setupRouter(newTestService(store, &fakeLLM{}, &fakeRenderer{out: []byte("%PDF")}), defaultOptions())

	rec := postJSON(router, "/api/download-pdf", `{"html_plan":"<p>plan</p>"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp downloadLinkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Filename, "ai_career_plan_"))
	assert.True(t, strings.HasPrefix(resp.DownloadURL, "https://signed.example/"))
	assert.Equal(t, "generated/"+resp.Filename, resp.Locator)
}

func TestDownloadPDFErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		renderer *fakeRenderer
		status   int
		code     string
	}{
		{name: "missing html", body: `{"user_profile":{}}`, renderer: &fakeRenderer{out: []byte("%PDF")}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "blank html", body: `{"html_plan":"   "}`, renderer: &fakeRenderer{out: []byte("%PDF")}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "bad json", body: `{`, renderer: &fakeRenderer{out: []byte("%PDF")}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "render failure", body: `{"html_plan":"<p>x</p>"}`, renderer: &fakeRenderer{err: errors.New("boom")}, status: http.StatusInternalServerError, code: "render_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(newTestService(newMemStore(), &fakeLLM{}, tt.renderer), defaultOptions())
			rec := postJSON(router, "/api/download-pdf", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestDownloadPDFStorageError(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("bucket unreachable")
	router := setupRouter(newTestService(store, &fakeLLM{}, &fakeRenderer{out: []byte("%PDF")}), defaultOptions())

	rec := postJSON(router, "/api/download-pdf", `{"html_plan":"<p>x</p>"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage_error", decodeError(t, rec).Error.Code)
}
