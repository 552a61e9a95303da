// internal/model/template.go
package model

import "time"

// EmailTemplate is the content snapshot produced by the layout editor:
// pre-rendered HTML and plain-text bodies with liquid merge fields left in.
type EmailTemplate struct {
	ID          int       `db:"id" json:"id"`
	CompanyID   int       `db:"company_id" json:"company_id"`
	Name        string    `db:"name" json:"name"`
	HTMLContent string    `db:"html_content" json:"html_content"`
	TextContent string    `db:"text_content" json:"text_content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SenderIdentity is a from-address a tenant is allowed to send as once the
// provider has verified it.
type SenderIdentity struct {
	ID        int    `db:"id" json:"id"`
	CompanyID int    `db:"company_id" json:"company_id"`
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Verified  bool   `db:"verified" json:"verified"`
}
