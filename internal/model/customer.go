// internal/model/customer.go
package model

// Customer is a CRM customer record. Owned by the CRM core; this subsystem
// only reads it when snapshotting an audience and rendering merge data.
type Customer struct {
	ID        int    `db:"id" json:"id"`
	CompanyID int    `db:"company_id" json:"company_id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Phone     string `db:"phone" json:"phone"`
	City      string `db:"city" json:"city"`
}

// MergeData returns the customer fields exposed to campaign templates.
func (c *Customer) MergeData() map[string]interface{} {
	return map[string]interface{}{
		"email":      c.Email,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"phone":      c.Phone,
		"city":       c.City,
	}
}
