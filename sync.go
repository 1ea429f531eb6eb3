package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Source is the remote boundary the orchestrator pulls from. Message listing
// is ascending and exclusive of afterID; reply listing has no server-side
// floor, so watermark filtering of replies happens in the orchestrator.
type Source interface {
	Dialogs(ctx context.Context) ([]Channel, error)
	MessagesAfter(ctx context.Context, channelID, afterID int64, limit int) ([]Message, error)
	Attachments(ctx context.Context, channelID int64, msg Message) ([]Attachment, error)
	Replies(ctx context.Context, channelID, messageID int64, limit int) ([]Reply, error)
}

// Syncer drives one incremental pass over all dialogs. Channels are
// processed strictly one after another; per channel, the fetch window starts
// just above the watermark derived from the stored rows, so a killed run
// resumes at the last committed message with no separate cursor state.
//
// Known gap, inherited deliberately: if the process dies after a message
// batch commits but before that batch's attachments and replies are
// processed, the next run's window starts above those messages and their
// attachments/replies are never revisited.
type Syncer struct {
	src   Source
	store *Store
	files *AttachmentHandler
	cfg   Config
	log   *zap.Logger
}

// NewSyncer wires the orchestrator. The configuration is an explicit value;
// nothing below this constructor reads configuration on its own.
func NewSyncer(src Source, store *Store, files *AttachmentHandler, cfg Config, logger *zap.Logger) *Syncer {
	return &Syncer{src: src, store: store, files: files, cfg: cfg, log: logger}
}

// Run executes one sync pass. Only the dialog listing is fatal: every error
// below it is contained at the channel or message it belongs to, logged, and
// the pass moves on. A batch larger than the configured page size catches up
// across successive runs rather than paging within one.
func (s *Syncer) Run(ctx context.Context) error {
	dialogs, err := s.src.Dialogs(ctx)
	if err != nil {
		return fmt.Errorf("fetch dialogs: %w", err)
	}

	if s.cfg.DebugMode {
		filtered := dialogs[:0]
		for _, d := range dialogs {
			if d.ID == s.cfg.DebugChannelID {
				filtered = append(filtered, d)
			}
		}
		dialogs = filtered
	}

	s.log.Info("starting sync pass", zap.Int("dialogs", len(dialogs)))

	for _, dialog := range dialogs {
		if err := s.syncChannel(ctx, dialog); err != nil {
			s.log.Error("channel skipped for this run",
				zap.Int64("channel_id", dialog.ID),
				zap.String("title", dialog.Title),
				zap.Error(err))
			continue
		}
	}

	return nil
}

// syncChannel catches one channel up: ensure its rows exist, persist the new
// message window, then fan out per message to attachments and replies.
func (s *Syncer) syncChannel(ctx context.Context, dialog Channel) error {
	kindID, err := s.store.EnsureChannelKind(dialog.Kind)
	if err != nil {
		return err
	}
	if err := s.store.EnsureChannel(dialog.ID, dialog.Title, kindID); err != nil {
		return err
	}

	last, err := s.store.LastMessageID(dialog.ID)
	if err != nil {
		return err
	}
	if s.cfg.DebugMode && s.cfg.DebugMessageIDThreshold > last {
		last = s.cfg.DebugMessageIDThreshold
	}

	messages, err := s.src.MessagesAfter(ctx, dialog.ID, last, s.cfg.MessageFetchLimit)
	if err != nil {
		return err
	}
	if err := s.store.InsertMessages(dialog.ID, messages); err != nil {
		return err
	}

	s.log.Info("messages synced",
		zap.Int64("channel_id", dialog.ID),
		zap.String("title", dialog.Title),
		zap.Int64("watermark", last),
		zap.Int("new_messages", len(messages)))

	// Per-message failures are contained here so one bad message cannot
	// abort its siblings; the messages above are already committed.
	for _, msg := range messages {
		if err := s.syncAttachments(ctx, dialog.ID, msg); err != nil {
			s.log.Error("attachment processing failed",
				zap.Int64("channel_id", dialog.ID),
				zap.Int64("message_id", msg.ID),
				zap.Error(err))
		}
		if err := s.syncReplies(ctx, dialog.ID, msg); err != nil {
			s.log.Error("reply processing failed",
				zap.Int64("channel_id", dialog.ID),
				zap.Int64("message_id", msg.ID),
				zap.Error(err))
		}
	}

	return nil
}

// syncAttachments materializes and persists every accepted attachment of one
// message. An attachment that fails to materialize yields no row and no
// error; see AttachmentHandler.Save.
func (s *Syncer) syncAttachments(ctx context.Context, channelID int64, msg Message) error {
	attachments, err := s.src.Attachments(ctx, channelID, msg)
	if err != nil {
		return err
	}

	for _, att := range attachments {
		path := s.files.Save(ctx, att)
		if path == "" {
			continue
		}

		kindID, err := s.store.EnsureAttachmentKind(att.Kind())
		if err != nil {
			return err
		}
		if err := s.store.InsertAttachment(att.AttachmentID(), msg.ID, channelID, kindID, path); err != nil {
			return err
		}

		s.log.Debug("attachment saved",
			zap.Int64("channel_id", channelID),
			zap.Int64("message_id", msg.ID),
			zap.Int64("attachment_id", att.AttachmentID()),
			zap.String("path", path))
	}

	return nil
}

// syncReplies persists the new tail of a message's reply thread. The reply
// listing has no server-side floor, so replies at or below the stored
// watermark are filtered out here before insertion.
func (s *Syncer) syncReplies(ctx context.Context, channelID int64, msg Message) error {
	if !msg.HasReplies {
		return nil
	}

	lastReply, err := s.store.LastReplyID(channelID, msg.ID)
	if err != nil {
		return err
	}

	replies, err := s.src.Replies(ctx, channelID, msg.ID, s.cfg.ReplyFetchLimit)
	if err != nil {
		return err
	}

	saved := 0
	for _, r := range replies {
		if r.ID <= lastReply {
			continue
		}
		if err := s.store.InsertReply(channelID, msg.ID, r); err != nil {
			return err
		}
		saved++
	}

	if saved > 0 {
		s.log.Debug("replies saved",
			zap.Int64("channel_id", channelID),
			zap.Int64("message_id", msg.ID),
			zap.Int("count", saved))
	}
	return nil
}
