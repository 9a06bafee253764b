package repos

import (
	"fmt"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

type (
	// Scanner maps result rows onto row structs.
	Scanner interface {
		ScanAll(dst any, rows pgx.Rows) error
		ScanOne(dst any, rows pgx.Rows) error
		IsNotFound(err error) bool
	}

	PgxScanner struct{}
)

func NewPgxScanner() *PgxScanner {
	return &PgxScanner{}
}

func (s *PgxScanner) ScanAll(dst any, rows pgx.Rows) error {
	return pgxscan.ScanAll(dst, rows)
}

// ScanOne fails with a not-found error when rows is empty.
func (s *PgxScanner) ScanOne(dst any, rows pgx.Rows) error {
	return pgxscan.ScanOne(dst, rows)
}

func (s *PgxScanner) IsNotFound(err error) bool {
	return pgxscan.NotFound(err)
}

// collect scans rows into row structs of type R and converts each one, in
// result order. Scan and conversion failures both count as query errors.
func collect[R, T any](scanner Scanner, rows pgx.Rows, convert func(R) (*T, error)) ([]T, error) {
	var scanned []R
	if err := scanner.ScanAll(&scanned, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	result := make([]T, 0, len(scanned))

	for index := range scanned {
		value, err := convert(scanned[index])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		result = append(result, *value)
	}

	return result, nil
}
