package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/errors"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/repository"
)

// EvidenceService attaches comments and document metadata to cases. Both are
// append-only.
type EvidenceService struct {
	store  repository.Store
	events EventPublisher
	clock  Clock
	log    *logger.Logger
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(store repository.Store, events EventPublisher, clock Clock, log *logger.Logger) *EvidenceService {
	return &EvidenceService{
		store:  store,
		events: publisherOrNop(events),
		clock:  clock,
		log:    log,
	}
}

// AddCommentRequest represents a free-text annotation.
type AddCommentRequest struct {
	CaseID      string `json:"case_id"`
	Text        string `json:"text"`
	CommentType string `json:"comment_type,omitempty"`
}

// AddComment appends a comment and its "Comment Added" audit entry.
func (s *EvidenceService) AddComment(ctx context.Context, actor auth.Actor, req AddCommentRequest) (*repository.Comment, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.MissingField("text")
	}
	commentType := strings.TrimSpace(req.CommentType)
	if commentType == "" {
		commentType = DefaultCommentType
	}

	var comment *repository.Comment
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetCaseForUpdate(ctx, req.CaseID); err != nil {
			return err
		}
		now := s.clock.Now()
		comment = &repository.Comment{
			CaseID:    req.CaseID,
			Text:      text,
			Type:      commentType,
			Author:    actor.UserID,
			CreatedAt: now,
		}
		if err := tx.AppendComment(ctx, comment); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID:      caseRef(req.CaseID),
			Action:      ActionCommentAdded,
			Detail:      fmt.Sprintf("%s comment added", commentType),
			PerformedBy: actor.UserID,
			PerformedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("case_id", req.CaseID).
		Str("comment_type", commentType).
		Str("author", actor.UserID).
		Msg("Comment added")

	s.events.PublishCaseEvent(ctx, EventCommentAdded, req.CaseID, actor.UserID, map[string]any{
		"comment_id":   comment.ID,
		"comment_type": commentType,
	})
	return comment, nil
}

// Comments returns the case's comments, newest first.
func (s *EvidenceService) Comments(ctx context.Context, actor auth.Actor, caseID string, limit int) ([]*repository.Comment, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, caseID, limit)
}

// RecordDocumentRequest describes a file already stored by the upload
// collaborator.
type RecordDocumentRequest struct {
	CaseID    string `json:"case_id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

// RecordDocument stores document metadata and a "Document Added" audit entry.
// The uploader is the acting user.
func (s *EvidenceService) RecordDocument(ctx context.Context, actor auth.Actor, req RecordDocumentRequest) (*repository.Document, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, errors.MissingField("filename")
	}
	if req.SizeBytes < 0 {
		return nil, errors.InvalidInput("size_bytes", "size cannot be negative")
	}

	var doc *repository.Document
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetCaseForUpdate(ctx, req.CaseID); err != nil {
			return err
		}
		now := s.clock.Now()
		doc = &repository.Document{
			CaseID:     req.CaseID,
			Filename:   filename,
			SizeBytes:  req.SizeBytes,
			UploadedBy: actor.UserID,
			UploadedAt: now,
		}
		if err := tx.InsertDocument(ctx, doc); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &repository.AuditEntry{
			CaseID:      caseRef(req.CaseID),
			Action:      ActionDocumentAdded,
			Detail:      "Document: " + filename,
			PerformedBy: actor.UserID,
			PerformedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("case_id", req.CaseID).
		Str("filename", filename).
		Int64("size_bytes", req.SizeBytes).
		Msg("Document recorded")

	s.events.PublishCaseEvent(ctx, EventDocumentRecorded, req.CaseID, actor.UserID, map[string]any{
		"document_id": doc.ID,
		"filename":    filename,
		"size_bytes":  req.SizeBytes,
	})
	return doc, nil
}

// Documents lists document metadata for a case, newest first.
func (s *EvidenceService) Documents(ctx context.Context, actor auth.Actor, caseID string) ([]*repository.Document, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, caseID)
}
