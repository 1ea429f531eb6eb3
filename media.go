package main

import (
	"mime"
	"strings"

	"github.com/gotd/td/tg"
)

// extractAttachments maps a message's media to the attachment kinds this
// mirror materializes. Only photos and plain documents are surfaced; audio,
// voice, video, video notes, animated gifs, stickers and link previews are
// deliberately excluded here, at the adapter boundary, so they never reach
// the materializer.
func extractAttachments(media tg.MessageMediaClass) []Attachment {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photoClass, ok := m.GetPhoto()
		if !ok {
			return nil
		}
		photo, ok := photoClass.AsNotEmpty()
		if !ok {
			return nil
		}
		return []Attachment{Photo{
			ID: photo.ID,
			Location: &tg.InputPhotoFileLocation{
				ID:            photo.ID,
				AccessHash:    photo.AccessHash,
				FileReference: photo.FileReference,
				ThumbSize:     largestPhotoSize(photo.Sizes),
			},
		}}

	case *tg.MessageMediaDocument:
		docClass, ok := m.GetDocument()
		if !ok {
			return nil
		}
		doc, ok := docClass.AsNotEmpty()
		if !ok {
			return nil
		}
		if documentExcluded(doc) {
			return nil
		}
		return []Attachment{Document{
			ID:       doc.ID,
			Ext:      documentExt(doc),
			Location: doc.AsInputDocumentFileLocation(),
		}}
	}

	// Web previews, geo points, polls, contacts and anything the platform
	// adds later fall through here and are not mirrored.
	return nil
}

// documentExcluded reports whether a document carries an attribute that puts
// it in an excluded kind: audio/voice, video/video-note, animated gif or
// sticker.
func documentExcluded(doc *tg.Document) bool {
	for _, attr := range doc.Attributes {
		switch attr.(type) {
		case *tg.DocumentAttributeAudio,
			*tg.DocumentAttributeVideo,
			*tg.DocumentAttributeAnimated,
			*tg.DocumentAttributeSticker:
			return true
		}
	}
	return false
}

// documentExt returns the extension hint for a document, leading dot
// included. The original filename wins; the mimetype is the fallback.
func documentExt(doc *tg.Document) string {
	for _, attr := range doc.Attributes {
		if fn, ok := attr.(*tg.DocumentAttributeFilename); ok {
			if idx := strings.LastIndex(fn.FileName, "."); idx >= 0 && idx < len(fn.FileName)-1 {
				return fn.FileName[idx:]
			}
		}
	}
	if exts, err := mime.ExtensionsByType(doc.MimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// largestPhotoSize picks the thumb-size type of the largest real size in a
// photo's size list. Stripped and path previews carry inline bytes, not a
// downloadable size, and are skipped.
func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	best := ""
	bestArea := -1
	for _, s := range sizes {
		var typ string
		var area int
		switch v := s.(type) {
		case *tg.PhotoSize:
			typ, area = v.Type, v.W*v.H
		case *tg.PhotoSizeProgressive:
			typ, area = v.Type, v.W*v.H
		case *tg.PhotoCachedSize:
			typ, area = v.Type, v.W*v.H
		default:
			continue
		}
		if area > bestArea {
			best, bestArea = typ, area
		}
	}
	return best
}
