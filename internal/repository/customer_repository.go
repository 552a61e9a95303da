package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/garageware/crm-backend/internal/model"
)

// CustomerRepositoryInterface defines the read-only customer access this
// subsystem needs. Customer records are owned by the CRM core.
type CustomerRepositoryInterface interface {
	GetByID(companyID, id int) (*model.Customer, error)
	IDsByTags(companyID int, tagIDs []int64) ([]int, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID fetches a customer by ID, tenant scoped
func (r *CustomerRepository) GetByID(companyID, id int) (*model.Customer, error) {
	query := `
        SELECT id, company_id, email, first_name, last_name, phone, city
        FROM customers
        WHERE company_id = $1 AND id = $2
    `
	row := r.DB.QueryRow(query, companyID, id)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.City); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// IDsByTags resolves the audience for a snapshot: every customer of the
// tenant bearing ANY of the given tags, each at most once.
func (r *CustomerRepository) IDsByTags(companyID int, tagIDs []int64) ([]int, error) {
	query := `
        SELECT DISTINCT c.id
        FROM customers c
        JOIN customer_tags ct ON ct.customer_id = c.id
        WHERE c.company_id = $1 AND ct.tag_id = ANY($2)
        ORDER BY c.id
    `
	rows, err := r.DB.Query(query, companyID, pq.Array(tagIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
