package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign lifecycle
	CreateWithSnapshot(c *model.Campaign, customerIDs []int) (int, error)
	GetByID(companyID, id int) (*model.Campaign, error)
	GetByPublicID(companyID int, publicID string) (*model.Campaign, error)
	GetForDispatch(id int) (*model.Campaign, error)
	ListCampaigns(companyID, offset, limit int, status string) ([]*model.Campaign, int, error)
	ClaimForSending(campaignID int, now time.Time) (bool, error)
	MarkSent(campaignID int, sentAt time.Time) error
	MarkFailed(campaignID int) error
	DueCampaignIDs(now time.Time, limit int) ([]int, error)
	GetContactStats(campaignID int) (map[string]int, error)

	// Campaign creation lookups
	TemplateByID(companyID, id int) (*model.EmailTemplate, error)
	SenderVerified(companyID int, email string) (bool, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, public_id, company_id, subject, preheader, template_id,
	from_address, reply_to, tag_ids, status, scheduled_at, sent_at, created_at, updated_at`

// CreateWithSnapshot inserts the campaign row and its recipient snapshot in
// one transaction: both succeed or neither is persisted. Returns the number
// of contact rows created.
func (r *CampaignRepository) CreateWithSnapshot(c *model.Campaign, customerIDs []int) (int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	c.CreatedAt = time.Now()
	if c.PublicID == "" {
		c.PublicID = uuid.NewString()
	}

	err = tx.QueryRow(`
		INSERT INTO campaigns
			(public_id, company_id, subject, preheader, template_id, from_address,
			 reply_to, tag_ids, status, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, c.PublicID, c.CompanyID, c.Subject, c.Preheader, c.TemplateID, c.FromAddress,
		c.ReplyTo, pq.Array(c.TagIDs), c.Status, c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO campaign_contacts (id, campaign_id, customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	for _, customerID := range customerIDs {
		if _, err := stmt.Exec(uuid.NewString(), c.ID, customerID, model.ContactStatusPending, now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(customerIDs), nil
}

func (r *CampaignRepository) GetByID(companyID, id int) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE company_id=$1 AND id=$2`, campaignColumns)
	return r.scanCampaign(r.DB.QueryRow(query, companyID, id), id)
}

func (r *CampaignRepository) GetByPublicID(companyID int, publicID string) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE company_id=$1 AND public_id=$2`, campaignColumns)
	return r.scanCampaign(r.DB.QueryRow(query, companyID, publicID), 0)
}

// GetForDispatch loads a campaign by internal id without tenant scoping.
// Only the worker uses this; dispatch jobs carry trusted internal ids.
func (r *CampaignRepository) GetForDispatch(id int) (*model.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id=$1`, campaignColumns)
	return r.scanCampaign(r.DB.QueryRow(query, id), id)
}

func (r *CampaignRepository) scanCampaign(row *sql.Row, id int) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.PublicID, &c.CompanyID, &c.Subject, &c.Preheader, &c.TemplateID,
		&c.FromAddress, &c.ReplyTo, pq.Array(&c.TagIDs), &c.Status,
		&c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(companyID, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE company_id=$1`, campaignColumns)
	args := []interface{}{companyID}
	argPos := 2

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.PublicID, &c.CompanyID, &c.Subject, &c.Preheader, &c.TemplateID,
			&c.FromAddress, &c.ReplyTo, pq.Array(&c.TagIDs), &c.Status,
			&c.ScheduledAt, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE company_id=$1`
	countArgs := []interface{}{companyID}
	if status != "" {
		countQuery += " AND status=$2"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ClaimForSending atomically flips an eligible campaign into "sending".
// The status predicate makes the update a compare-and-swap: when two workers
// race on the same due campaign, exactly one sees a row affected.
func (r *CampaignRepository) ClaimForSending(campaignID int, now time.Time) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE campaigns
		SET status=$1, updated_at=$2
		WHERE id=$3
		  AND status IN ($4, $5)
		  AND (scheduled_at IS NULL OR scheduled_at <= $2)
	`, model.CampaignStatusSending, now, campaignID,
		model.CampaignStatusQueued, model.CampaignStatusScheduled)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkSent completes a dispatch run. Guarded on "sending" so a stale worker
// cannot overwrite a terminal status.
func (r *CampaignRepository) MarkSent(campaignID int, sentAt time.Time) error {
	_, err := r.DB.Exec(`
		UPDATE campaigns SET status=$1, sent_at=$2, updated_at=$2
		WHERE id=$3 AND status=$4
	`, model.CampaignStatusSent, sentAt, campaignID, model.CampaignStatusSending)
	return err
}

func (r *CampaignRepository) MarkFailed(campaignID int) error {
	_, err := r.DB.Exec(`
		UPDATE campaigns SET status=$1, updated_at=NOW()
		WHERE id=$2 AND status=$3
	`, model.CampaignStatusFailed, campaignID, model.CampaignStatusSending)
	return err
}

// DueCampaignIDs returns campaigns whose schedule has arrived, for the
// worker's scheduler loop. The claim itself happens in ClaimForSending.
func (r *CampaignRepository) DueCampaignIDs(now time.Time, limit int) ([]int, error) {
	rows, err := r.DB.Query(`
		SELECT id FROM campaigns
		WHERE status IN ($1, $2)
		  AND (scheduled_at IS NULL OR scheduled_at <= $3)
		ORDER BY scheduled_at ASC NULLS FIRST
		LIMIT $4
	`, model.CampaignStatusQueued, model.CampaignStatusScheduled, now, limit)
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

func (r *CampaignRepository) GetContactStats(campaignID int) (map[string]int, error) {
	rows, err := r.DB.Query(`
		SELECT status, COUNT(*) FROM campaign_contacts WHERE campaign_id=$1 GROUP BY status
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":   0,
		"pending": 0,
		"sent":    0,
		"opened":  0,
		"clicked": 0,
		"bounced": 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

func (r *CampaignRepository) TemplateByID(companyID, id int) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	err := r.DB.QueryRow(`
		SELECT id, company_id, name, html_content, text_content, created_at
		FROM email_templates WHERE company_id=$1 AND id=$2
	`, companyID, id).Scan(&t.ID, &t.CompanyID, &t.Name, &t.HTMLContent, &t.TextContent, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *CampaignRepository) SenderVerified(companyID int, email string) (bool, error) {
	var verified bool
	err := r.DB.QueryRow(`
		SELECT verified FROM sender_identities WHERE company_id=$1 AND email=$2
	`, companyID, email).Scan(&verified)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return verified, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
