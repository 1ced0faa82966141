package documents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinylworks/vinylops/report"
)

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte, paper report.PaperOptions) ([]byte, error)
}

// RenderJob is the payload of an asynchronous render.
type RenderJob struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Source Source `json:"source"`
}

// Service renders documents and stores asynchronous results.
type Service struct {
	templates *Templates
	renderer  PDFRenderer
	store     *FileStore
	logger    *slog.Logger
}

// NewService wires the documents service.
func NewService(templates *Templates, renderer PDFRenderer, store *FileStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{templates: templates, renderer: renderer, store: store, logger: logger}
}

// HTML builds and renders the page for kind without converting it.
func (s *Service) HTML(kind Kind, src Source) ([]byte, error) {
	payload, err := Build(kind, src)
	if err != nil {
		return nil, err
	}
	return s.templates.Render(payload)
}

// Render produces the PDF for kind.
func (s *Service) Render(ctx context.Context, kind Kind, src Source) ([]byte, error) {
	html, err := s.HTML(kind, src)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html, report.A4)
	if err != nil {
		return nil, fmt.Errorf("documents: render %s %s: %w", kind, src.Number, err)
	}
	return pdf, nil
}

// RenderToStore runs job and saves the PDF under job.ID.
func (s *Service) RenderToStore(ctx context.Context, job RenderJob) error {
	pdf, err := s.Render(ctx, job.Kind, job.Source)
	if err != nil {
		return err
	}
	if err := s.store.Save(job.ID, pdf); err != nil {
		return err
	}
	s.logger.Info("document stored", slog.String("id", job.ID), slog.String("kind", string(job.Kind)), slog.Int("bytes", len(pdf)))
	return nil
}

// Store exposes the file store for serving results.
func (s *Service) Store() *FileStore {
	return s.store
}
