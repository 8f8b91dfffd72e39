package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/apexlearn/campaign-api/internal/models"
)

// EmailTemplateRepository stores the subject/content template pairs that
// timeline events reference.
type EmailTemplateRepository struct {
	db *sqlx.DB
}

// NewEmailTemplateRepository creates the repository.
func NewEmailTemplateRepository(db *sqlx.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// GetByID loads a template by identifier.
func (r *EmailTemplateRepository) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	const query = `SELECT id, name, subject_template, content_template, created_at, updated_at
FROM email_templates WHERE id = $1`
	var tmpl models.EmailTemplate
	if err := r.db.GetContext(ctx, &tmpl, query, id); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// List returns all templates ordered by name.
func (r *EmailTemplateRepository) List(ctx context.Context) ([]models.EmailTemplate, error) {
	const query = `SELECT id, name, subject_template, content_template, created_at, updated_at
FROM email_templates ORDER BY name ASC`
	var templates []models.EmailTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}
	return templates, nil
}

// Create inserts a new template.
func (r *EmailTemplateRepository) Create(ctx context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now

	const query = `INSERT INTO email_templates (id, name, subject_template, content_template, created_at, updated_at)
VALUES (:id, :name, :subject_template, :content_template, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tmpl); err != nil {
		return fmt.Errorf("create email template: %w", err)
	}
	return nil
}
