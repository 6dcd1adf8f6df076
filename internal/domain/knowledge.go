package domain

import (
	"fmt"
	"time"
)

// ContentType represents the provenance class of a knowledge entry
type ContentType string

const (
	ContentTypeWebsite  ContentType = "website_content"
	ContentTypeBlogPost ContentType = "blog_post"
	ContentTypeDocument ContentType = "document"
)

// SiteContentTypes are the content types rendered as site sources in prompts.
var SiteContentTypes = []ContentType{ContentTypeWebsite, ContentTypeBlogPost}

// DocumentContentTypes are the content types rendered as document sources.
var DocumentContentTypes = []ContentType{ContentTypeDocument}

// KnowledgeEntry is one retrievable unit of the knowledge corpus.
// SourceID is unique; a re-sync overwrites the row with the same SourceID.
type KnowledgeEntry struct {
	SourceID    string
	Title       string
	Content     string
	ContentType ContentType
	Embedding   []float32
	Similarity  float64 // set by semantic search only
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewKnowledgeEntry creates a new KnowledgeEntry instance
func NewKnowledgeEntry(sourceID, title, content string, contentType ContentType, embedding []float32) *KnowledgeEntry {
	now := time.Now().UTC()
	return &KnowledgeEntry{
		SourceID:    sourceID,
		Title:       title,
		Content:     content,
		ContentType: contentType,
		Embedding:   embedding,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsSiteContent reports whether the entry comes from a page or a blog post.
func (e *KnowledgeEntry) IsSiteContent() bool {
	return e.ContentType == ContentTypeWebsite || e.ContentType == ContentTypeBlogPost
}

// ValidateKnowledgeEntry validates a KnowledgeEntry instance
func ValidateKnowledgeEntry(e *KnowledgeEntry) error {
	if e == nil {
		return fmt.Errorf("knowledge entry cannot be nil")
	}

	if e.SourceID == "" {
		return fmt.Errorf("knowledge entry SourceID is required")
	}

	if e.Content == "" {
		return fmt.Errorf("knowledge entry Content is required")
	}

	if !IsValidContentType(e.ContentType) {
		return fmt.Errorf("knowledge entry ContentType is invalid: %s", e.ContentType)
	}

	return nil
}

// IsValidContentType checks if a ContentType is valid
func IsValidContentType(t ContentType) bool {
	switch t {
	case ContentTypeWebsite, ContentTypeBlogPost, ContentTypeDocument:
		return true
	}
	return false
}
