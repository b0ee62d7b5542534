package domain

import "time"

type CodeDocument struct {
	Content      string    `json:"content"`
	Version      int64     `json:"version"`
	LastEditorID string    `json:"last_editor_id"`
	LastEditedAt time.Time `json:"last_edited_at"`
}

// Document is the authoritative shared buffer. Every accepted write replaces
// the content and bumps the version by exactly one.
type Document struct {
	doc CodeDocument
}

func NewDocument(content, editorID string, now time.Time) *Document {
	return &Document{doc: CodeDocument{
		Content:      content,
		Version:      1,
		LastEditorID: editorID,
		LastEditedAt: now.UTC(),
	}}
}

func RestoreDocument(doc CodeDocument) *Document {
	if doc.Version < 1 {
		doc.Version = 1
	}
	return &Document{doc: doc}
}

// Replace overwrites the content unconditionally and returns the new version.
func (d *Document) Replace(content, editorID string, now time.Time) int64 {
	d.doc.Content = content
	d.doc.Version++
	d.doc.LastEditorID = editorID
	d.doc.LastEditedAt = now.UTC()
	return d.doc.Version
}

func (d *Document) Snapshot() CodeDocument {
	return d.doc
}
