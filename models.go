package main

import (
	"time"

	"github.com/gotd/td/tg"
)

// Channel is a remote dialog as surfaced by the source adapter: a broadcast
// channel, a group chat, or a direct user conversation. Kind is one of
// "Channel", "Chat" or "User", matching the platform's entity classes.
type Channel struct {
	ID    int64
	Title string
	Kind  string
}

// Message is a single dialog message. ID is the platform message id, which is
// only unique within its dialog. Media holds the raw platform media object,
// if any, so attachments can be enumerated without a second fetch; it is
// opaque to everything except the source adapter.
type Message struct {
	ID         int64
	Text       string
	Date       time.Time
	GroupedID  int64
	HasReplies bool
	Media      tg.MessageMediaClass
}

// Reply is a message in a thread under a root message. Reply ids are globally
// unique on the platform side, unlike per-dialog message ids.
type Reply struct {
	ID              int64
	ReplyToDialogID int64
	ReplyToMsgID    int64
	Content         string
	SenderID        int64
	Date            time.Time
}

// Attachment is a closed variant over the kinds this mirror materializes.
// Only photos and documents exist; every other media kind is rejected at the
// adapter boundary and never reaches this type.
type Attachment interface {
	// attachment closes the variant: only Photo and Document implement it.
	attachment()

	AttachmentID() int64
	Kind() string
}

// Photo is an image attachment. Location is the platform download handle.
type Photo struct {
	ID       int64
	Location tg.InputFileLocationClass
}

func (Photo) attachment()           {}
func (p Photo) AttachmentID() int64 { return p.ID }
func (Photo) Kind() string          { return "photo" }

// Document is a generic file attachment. Ext is the filename-extension hint
// (leading dot included) used to build the target path.
type Document struct {
	ID       int64
	Ext      string
	Location tg.InputFileLocationClass
}

func (Document) attachment()           {}
func (d Document) AttachmentID() int64 { return d.ID }
func (Document) Kind() string          { return "document" }
