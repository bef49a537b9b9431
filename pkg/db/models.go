package db

import "time"

// Object is a row in the objects table.
type Object struct {
	Type     string    `json:"object_type"`
	ID       int       `json:"id"`
	Subtype  string    `json:"subtype"`
	Status   string    `json:"status"`
	MimeType string    `json:"mime_type"`
	Email    string    `json:"email"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// Mail is a row in the mail_outbox table.
type Mail struct {
	ID        int64      `json:"id"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	ObjectID  *int       `json:"object_id,omitempty"`
	Created   time.Time  `json:"created"`
	Sent      *time.Time `json:"sent,omitempty"`
}
