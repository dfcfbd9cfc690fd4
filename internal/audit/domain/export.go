package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidExportWindow = errors.New("invalid_export_window")

// TargetSearch is the target type of entries written for one search.
const TargetSearch = "search"

type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// ExportRequest selects the audit entries of a time window, optionally for
// one advertiser or one search.
type ExportRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Format    ExportFormat
	Actions   []string
	CompanyID string
	SearchID  string
}

// Filter validates the window and converts the request for the repository.
func (r ExportRequest) Filter() (ListFilter, error) {
	if r.StartDate.IsZero() || !r.EndDate.After(r.StartDate) {
		return ListFilter{}, ErrInvalidExportWindow
	}
	f := ListFilter{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Actions:   r.Actions,
		CompanyID: strings.TrimSpace(r.CompanyID),
	}
	if id := strings.TrimSpace(r.SearchID); id != "" {
		f.TargetType = TargetSearch
		f.TargetID = id
	}
	return f, nil
}

type ExportResult struct {
	Data     []byte
	Checksum string
	Format   ExportFormat
	Count    int
}

type ExportService interface {
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
}
