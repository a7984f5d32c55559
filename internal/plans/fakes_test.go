package plans

import (
	"bytes"
	"context"
	"mime/multipart"
	"sync"
	"testing"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/shared/storage/object"
)

type fakeLLM struct {
	mu      sync.Mutex
	reqs    []llm.CompletionRequest
	content string
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return llm.Completion{Content: f.content}, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeLLM) lastUserMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		return ""
	}
	msgs := f.reqs[len(f.reqs)-1].Messages
	return msgs[len(msgs)-1].Content
}

type fakeRenderer struct {
	docs []string
	out  []byte
	err  error
}

func (f *fakeRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	f.docs = append(f.docs, html)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// memStore keeps objects in memory and uses "<category>/<name>" locators.
type memStore struct {
	mu      sync.Mutex
	objects map[object.Locator][]byte
	saveErr error
	readErr error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[object.Locator][]byte)}
}

func (m *memStore) Save(ctx context.Context, category object.Category, fileName string, data []byte) (object.Locator, error) {
	if err := object.CheckCategory(category); err != nil {
		return "", object.Wrap("save", category, err)
	}
	if m.saveErr != nil {
		return "", object.Wrap("save", category, m.saveErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	loc := object.Locator(string(category) + "/" + fileName)
	m.objects[loc] = append([]byte(nil), data...)
	return loc, nil
}

func (m *memStore) Read(ctx context.Context, loc object.Locator) ([]byte, error) {
	if m.readErr != nil {
		return nil, object.Wrap("read", "", m.readErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[loc]
	if !ok {
		return nil, object.Wrap("read", "", object.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Delete(ctx context.Context, loc object.Locator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[loc]; !ok {
		return object.Wrap("delete", "", object.ErrNotFound)
	}
	delete(m.objects, loc)
	return nil
}

func (m *memStore) Backend() string { return "memory" }

func (m *memStore) count(category object.Category) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for loc := range m.objects {
		if bytes.HasPrefix([]byte(loc), []byte(string(category)+"/")) {
			n++
		}
	}
	return n
}

type presigningStore struct {
	*memStore
}

func (p presigningStore) PresignGet(ctx context.Context, loc object.Locator, downloadName string) (string, error) {
	return "https://signed.example/" + loc.String() + "?name=" + downloadName, nil
}

func (p presigningStore) Backend() string { return "s3" }

func exampleFields() map[string]string {
	return map[string]string{
		"experience_level": "beginner",
		"job_role":         "QA tester",
		"interests":        "ML",
		"learning_style":   "visual",
		"time_commitment":  "5h/week",
		"goals":            "switch to ML engineering",
	}
}

type filePart struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("resume", file.name)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, w.FormDataContentType()
}
