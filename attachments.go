package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Downloader transfers the file behind a platform location into a local
// path. The telegram source satisfies it; tests substitute a fake.
type Downloader interface {
	Download(ctx context.Context, loc tg.InputFileLocationClass, path string) error
}

// AttachmentHandler materializes accepted attachments onto disk. Photos land
// in the images directory as <id>.jpg; documents land in the attachments
// directory as <id><ext>. Filenames are keyed by the platform's globally
// unique attachment id, so concurrent runs can never collide on a path.
type AttachmentHandler struct {
	imagesDir      string
	attachmentsDir string
	dl             Downloader
	log            *zap.Logger
}

// NewAttachmentHandler creates both output directories if absent.
func NewAttachmentHandler(imagesDir, attachmentsDir string, dl Downloader, logger *zap.Logger) (*AttachmentHandler, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	if err := os.MkdirAll(attachmentsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachments dir: %w", err)
	}
	return &AttachmentHandler{
		imagesDir:      imagesDir,
		attachmentsDir: attachmentsDir,
		dl:             dl,
		log:            logger,
	}, nil
}

// Save downloads one attachment to its target path and returns that path,
// or "" if the transfer failed. Failure is logged, never propagated: the
// caller treats "no path" as "skip persisting this attachment", so one bad
// file cannot abort the surrounding message loop.
func (h *AttachmentHandler) Save(ctx context.Context, att Attachment) string {
	var path string
	var loc tg.InputFileLocationClass

	switch a := att.(type) {
	case Photo:
		path = filepath.Join(h.imagesDir, fmt.Sprintf("%d.jpg", a.ID))
		loc = a.Location
	case Document:
		path = filepath.Join(h.attachmentsDir, fmt.Sprintf("%d%s", a.ID, a.Ext))
		loc = a.Location
	}

	if loc == nil {
		h.log.Warn("attachment has no download location",
			zap.Int64("attachment_id", att.AttachmentID()),
			zap.String("kind", att.Kind()))
		return ""
	}

	if err := h.dl.Download(ctx, loc, path); err != nil {
		h.log.Warn("attachment download failed",
			zap.Int64("attachment_id", att.AttachmentID()),
			zap.String("kind", att.Kind()),
			zap.String("path", path),
			zap.Error(err))
		return ""
	}
	return path
}
