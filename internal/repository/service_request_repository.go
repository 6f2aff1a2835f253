package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/agservice/internal/domain"
)

const defaultListLimit = 20

// ServiceRequestFilter captures list and count search parameters.
type ServiceRequestFilter struct {
	FarmCode      *string
	EquipmentCode *string
	RequestedBy   *string
	Statuses      []domain.ServiceRequestStatus
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// ServiceRequestRepository encapsulates service request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error)
	Count(ctx context.Context, filter ServiceRequestFilter) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const serviceRequestColumns = `id, farm_code, equipment_code, category, title, description,
               status, requested_by, visit_date, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (farm_code, equipment_code, category, title, description, status, requested_by, visit_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.FarmCode,
		req.EquipmentCode,
		req.Category,
		req.Title,
		req.Description,
		req.Status,
		req.RequestedBy,
		req.VisitDate,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE id=$1`
	var req domain.ServiceRequest
	if err := scanServiceRequest(r.pool.QueryRow(ctx, query, id), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *serviceRequestRepository) ListWithFilter(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	where, args := buildServiceRequestWhere(filter)
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		serviceRequestColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanServiceRequests(rows)
}

func (r *serviceRequestRepository) Count(ctx context.Context, filter ServiceRequestFilter) (int64, error) {
	where, args := buildServiceRequestWhere(filter)
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM service_requests WHERE `+where, args...).Scan(&n)
	return n, err
}

func (r *serviceRequestRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM service_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRequestRepository) CountByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	const query = `
        SELECT status, COUNT(*) FROM service_requests
        GROUP BY status ORDER BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusCount
	for rows.Next() {
		var sc domain.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// buildServiceRequestWhere renders the WHERE body and its positional args.
func buildServiceRequestWhere(filter ServiceRequestFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.FarmCode != nil {
		args = append(args, *filter.FarmCode)
		clauses = append(clauses, fmt.Sprintf("farm_code=$%d", len(args)))
	}
	if filter.EquipmentCode != nil {
		args = append(args, *filter.EquipmentCode)
		clauses = append(clauses, fmt.Sprintf("equipment_code=$%d", len(args)))
	}
	if filter.RequestedBy != nil {
		args = append(args, *filter.RequestedBy)
		clauses = append(clauses, fmt.Sprintf("requested_by=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanServiceRequest(row pgx.Row, req *domain.ServiceRequest) error {
	return row.Scan(
		&req.ID,
		&req.FarmCode,
		&req.EquipmentCode,
		&req.Category,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.RequestedBy,
		&req.VisitDate,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

func scanServiceRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	result := []domain.ServiceRequest{}
	for rows.Next() {
		var req domain.ServiceRequest
		if err := scanServiceRequest(rows, &req); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
