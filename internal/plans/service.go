package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerpath-backend/internal/extract"
	"careerpath-backend/internal/pdf"
	"careerpath-backend/internal/shared/metrics"
	"careerpath-backend/internal/shared/storage/object"
	"careerpath-backend/internal/shared/telemetry"
	"careerpath-backend/internal/shared/util"
)

// Service wires storage, extraction, generation and PDF export together.
type Service struct {
	Store     object.Store
	Generator *Generator
	Renderer  pdf.Renderer
	Now       func() time.Time
}

// NewService constructs a Service.
func NewService(store object.Store, gen *Generator, renderer pdf.Renderer) *Service {
	return &Service{
		Store:     store,
		Generator: gen,
		Renderer:  renderer,
		Now:       time.Now,
	}
}

// GeneratePlan stores the optional resume, extracts its text and asks the
// generator for a plan. Extraction failures only drop the resume excerpt.
// The returned locator is empty when no resume was attached.
func (s *Service) GeneratePlan(ctx context.Context, profile UserProfile, resume *ResumeUpload) (GeneratedPlan, object.Locator, error) {
	in := GenerateInput{Profile: profile}

	var loc object.Locator
	if resume != nil {
		name := util.UniqueName(s.now(), resume.FileName)
		saved, err := s.Store.Save(ctx, object.CategoryUploads, name, resume.Data)
		if err != nil {
			return GeneratedPlan{}, "", fmt.Errorf("store resume: %w", err)
		}
		loc = saved

		text, err := extract.ExtractText(ctx, resume.Data, util.FileExt(resume.FileName))
		if err != nil {
			metrics.IncResumeExtractFailed()
			telemetry.Warn("resume.extract.failed", map[string]any{
				"file_name": resume.FileName,
				"locator":   loc.String(),
				"err":       err,
			})
		} else {
			in.ResumeText = text
		}
	}

	html, err := s.Generator.Generate(ctx, in)
	if err != nil {
		return GeneratedPlan{}, loc, err
	}
	return GeneratedPlan{HTMLPlan: html, UserProfile: profile}, loc, nil
}

// ExportPDF renders the plan, stores the PDF under the generated category and
// reads it back from the store. DownloadURL is filled for presigning backends.
func (s *Service) ExportPDF(ctx context.Context, htmlPlan string) (Export, error) {
	now := s.now()
	document, err := pdf.BuildDocument(htmlPlan, now)
	if err != nil {
		return Export{}, err
	}

	data, err := s.Renderer.Render(ctx, document)
	if err != nil {
		metrics.IncPDFFailed()
		if !errors.Is(err, pdf.ErrRender) && !errors.Is(err, pdf.ErrEmptyDocument) {
			err = fmt.Errorf("%w: %w", pdf.ErrRender, err)
		}
		return Export{}, err
	}

	fileName := ExportFileName(now)
	loc, err := s.Store.Save(ctx, object.CategoryGenerated, fileName, data)
	if err != nil {
		metrics.IncPDFFailed()
		return Export{}, fmt.Errorf("store pdf: %w", err)
	}
	stored, err := s.Store.Read(ctx, loc)
	if err != nil {
		metrics.IncPDFFailed()
		return Export{}, fmt.Errorf("read pdf: %w", err)
	}

	out := Export{FileName: fileName, Locator: loc, Data: stored}
	if presigner, ok := s.Store.(object.Presigner); ok {
		url, err := presigner.PresignGet(ctx, loc, fileName)
		if err != nil {
			metrics.IncPDFFailed()
			return Export{}, fmt.Errorf("presign pdf: %w", err)
		}
		out.DownloadURL = url
	}

	metrics.IncPDFRendered()
	telemetry.Info("pdf.exported", map[string]any{
		"file_name":  fileName,
		"locator":    loc.String(),
		"size_bytes": len(stored),
		"backend":    s.Store.Backend(),
	})
	return out, nil
}

// ExportFileName names a generated PDF: ai_career_plan_<timestamp>_<id>.pdf.
func ExportFileName(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ai_career_plan_%s_%s.pdf", now.UTC().Format("20060102_150405"), id)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
