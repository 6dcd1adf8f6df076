package domain

import "time"

// BlogPost is a commentarium article. Only published posts are synced.
type BlogPost struct {
	ID          string
	Slug        string
	Title       string
	Excerpt     string
	Content     string
	Published   bool
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// SourceID returns the knowledge source id used for the post.
func (p *BlogPost) SourceID() string {
	return "blog-" + p.ID
}
