// Package jobpostgres keeps stamping jobs in PostgreSQL
package jobpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/WatermarkStamper/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func (p PostgresRepo) Create(ctx context.Context, j *model.Job) error {
	query := `INSERT INTO jobs (job_uid, media, source_name, source_key, logo_key, result_key, preview_key, options, status, err_msg, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	return p.DB.QueryRowContext(ctx, query,
		j.UID, j.Media, j.SourceName, j.SourceKey, j.LogoKey, j.ResultKey, j.PreviewKey,
		j.Options, j.Status, j.ErrMsg, j.CreatedAt, j.CreatedAt).Err()
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	query := `SELECT job_uid, media, source_name, source_key, logo_key, result_key, preview_key, options, status, err_msg, created_at, updated_at 
	FROM jobs 
	WHERE job_uid = $1`
	var job model.Job

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&job.UID,
		&job.Media,
		&job.SourceName,
		&job.SourceKey,
		&job.LogoKey,
		&job.ResultKey,
		&job.PreviewKey,
		&job.Options,
		&job.Status,
		&job.ErrMsg,
		&job.CreatedAt,
		&job.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrJobNotFound
		default:
			return nil, err // 500
		}
	}
	return &job, nil
}

// GetList - sort и order уже провалидированы сервисом, поэтому подставляются в запрос как есть
func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Job, error) {
	query := fmt.Sprintf(`SELECT job_uid, media, source_name, options, status, err_msg, created_at, updated_at 
	FROM jobs
	ORDER BY %s %s 
	LIMIT $1 
	OFFSET $2`, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	jobs := make([]model.Job, 0, req.Limit)
	for rows.Next() {
		var job model.Job
		if err := rows.Scan(&job.UID,
			&job.Media,
			&job.SourceName,
			&job.Options,
			&job.Status,
			&job.ErrMsg,
			&job.CreatedAt,
			&job.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return jobs, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM jobs
	WHERE job_uid = $1`

	return p.exec(ctx, query, id)
}

func (p PostgresRepo) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	query := `UPDATE jobs SET status = $1, updated_at = now() WHERE job_uid = $2`

	return p.exec(ctx, query, newStat, id)
}

func (p PostgresRepo) SaveResult(ctx context.Context, j *model.Job) error {
	query := `UPDATE jobs SET status = $1, updated_at = $2, result_key = $3, preview_key = $4, err_msg = $5 WHERE job_uid = $6`

	return p.exec(ctx, query, j.Status, j.UpdatedAt, j.ResultKey, j.PreviewKey, j.ErrMsg, j.UID)
}

// exec выполняет изменяющий запрос; ни одной затронутой строки - задачи нет
func (p PostgresRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := p.DB.Master.ExecContext(ctx, query, args...)
	if err != nil {
		return err // 500
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrJobNotFound // 404
	}
	return nil
}

func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT job_uid 
	FROM jobs 
	WHERE status IN ($1, $2) 
	AND updated_at < now() - interval '10 minutes'
	LIMIT $3`

	rows, err := p.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusInProgress, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		uid := ""
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		orphans = append(orphans, uid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}
