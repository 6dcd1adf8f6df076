package domain

import "time"

// ContactSubmission is a validated message from the website contact form.
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Company   string
	Message   string
	IP        string
	CreatedAt time.Time
}
