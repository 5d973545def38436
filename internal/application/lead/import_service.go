package lead

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	maxImportRows   = 10000
	maxReportErrors = 100
)

// ImportResult represents the result of a lead import
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

func (r *ImportResult) addError(e csvimport.RowError) {
	r.ErrorRows++
	r.TotalErrors++
	if len(r.Errors) < maxReportErrors {
		r.Errors = append(r.Errors, e)
	} else {
		r.IsTruncated = true
	}
}

// ImportService creates leads from CSV uploads
type ImportService struct {
	entities *EntityService
	logger   *zap.Logger
}

// NewImportService creates a new ImportService on top of the entity service
// so that imported rows follow the same rules as single creates
func NewImportService(entities *EntityService, logger *zap.Logger) *ImportService {
	return &ImportService{entities: entities, logger: logger}
}

// Columns lists the accepted column keys
func (s *ImportService) Columns() []fieldkit.Spec {
	specs := lead.EditableFields()
	out := specs[:0:0]
	for _, spec := range specs {
		if spec.Key != lead.FieldStatus {
			out = append(out, spec)
		}
	}
	return out
}

// Import reads the CSV and creates one lead per valid row. Header cells may
// use field keys or labels in any case; unknown columns are ignored.
func (s *ImportService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (_ *ImportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lead", "import")
	defer func() { telemetry.EndSpan(span, err) }()

	specs := s.Columns()
	parserOpts := []csvimport.Option{csvimport.WithMaxRows(maxImportRows)}
	if opts.Delimiter != 0 {
		parserOpts = append(parserOpts, csvimport.WithDelimiter(opts.Delimiter))
	}
	parser, err := csvimport.NewParser(r, headerNormalizer(specs), parserOpts...)
	if err != nil {
		return nil, importError(err)
	}
	if len(parser.Missing(lead.FieldEmail)) > 0 && len(parser.Missing(lead.FieldPhone)) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "CSV file needs an email or phone column")
	}

	if opts.OwnerID != nil {
		if err := s.entities.checkOwner(ctx, *opts.OwnerID); err != nil {
			return nil, err
		}
	}

	// rows are buffered; an oversized file imports nothing
	result := &ImportResult{}
	var rows []csvimport.Row
	for {
		row, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr csvimport.RowError
		if errors.As(err, &rowErr) {
			result.TotalRows++
			result.addError(rowErr)
			continue
		}
		if err != nil {
			return nil, importError(err)
		}
		result.TotalRows++
		rows = append(rows, row)
	}
	if result.TotalRows == 0 {
		return nil, importError(csvimport.ErrNoDataRows)
	}

	accountTypeID, err := s.entities.defaultAccountTypeID(ctx)
	if err != nil {
		return nil, err
	}
	batch := &importBatch{
		specs:         specs,
		opts:          opts,
		seen:          make(map[string]int),
		accountTypeID: accountTypeID,
		result:        result,
	}
	for _, row := range rows {
		if err := s.importRow(ctx, batch, row); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.Int("import.rows", result.TotalRows),
		attribute.Int("import.imported", result.ImportedRows),
	)
	s.logger.Info("Lead import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows))
	return result, nil
}

type importBatch struct {
	specs         []fieldkit.Spec
	opts          ImportOptions
	seen          map[string]int
	accountTypeID *uuid.UUID
	result        *ImportResult
}

// importRow reports row-level problems into the batch result; only
// infrastructure failures are returned
func (s *ImportService) importRow(ctx context.Context, batch *importBatch, row csvimport.Row) error {
	opts, seen, result := batch.opts, batch.seen, batch.result
	for _, spec := range batch.specs {
		raw, ok := row.Data[spec.Key]
		if !ok {
			continue
		}
		if _, err := fieldkit.NormalizeOnCommit(spec, raw); err != nil {
			result.addError(csvimport.RowError{Row: row.Line, Column: spec.Key, Code: csvimport.ErrCodeValidation, Message: err.Error()})
			return nil
		}
	}

	input := lead.NewEntityInput{
		FirstName: row.Data[lead.FieldFirstName],
		LastName:  row.Data[lead.FieldLastName],
		Email:     row.Data[lead.FieldEmail],
		Phone:     row.Data[lead.FieldPhone],
		Country:   row.Data[lead.FieldCountry],
		Language:  row.Data[lead.FieldLanguage],
		Campaign:  firstNonEmpty(row.Data[lead.FieldCampaign], opts.Campaign),
		Source:    firstNonEmpty(row.Data[lead.FieldSource], opts.Source),
		Notes:     row.Data[lead.FieldNotes],
	}
	entity, err := lead.NewEntity(input)
	if err != nil {
		result.addError(csvimport.RowError{Row: row.Line, Code: csvimport.ErrCodeValidation, Message: err.Error()})
		return nil
	}

	if entity.Email != "" {
		if first, dup := seen[entity.Email]; dup {
			if opts.SkipDuplicates {
				result.SkippedRows++
				return nil
			}
			result.addError(csvimport.RowError{
				Row: row.Line, Column: lead.FieldEmail, Code: csvimport.ErrCodeDuplicateInFile,
				Message: fmt.Sprintf("Email %s already appears on row %d", entity.Email, first),
			})
			return nil
		}
		seen[entity.Email] = row.Line

		exists, err := s.entities.entityRepo.ExistsByEmail(ctx, entity.Email)
		if err != nil {
			return err
		}
		if exists {
			if opts.SkipDuplicates {
				result.SkippedRows++
				return nil
			}
			result.addError(csvimport.RowError{
				Row: row.Line, Column: lead.FieldEmail, Code: csvimport.ErrCodeDuplicateInDB,
				Message: fmt.Sprintf("A contact with email %s already exists", entity.Email),
			})
			return nil
		}
	}

	if opts.OwnerID != nil {
		if err := entity.AssignOwner(*opts.OwnerID); err != nil {
			return err
		}
	}
	if batch.accountTypeID != nil {
		entity.SetAccountType(*batch.accountTypeID)
	}
	if err := s.entities.entityRepo.Save(ctx, entity); err != nil {
		return err
	}
	s.entities.publish(ctx, entity)
	result.ImportedRows++
	return nil
}

// headerNormalizer maps keys and labels, case-insensitively, onto field keys.
// Anything else becomes "" so the parser drops the column.
func headerNormalizer(specs []fieldkit.Spec) func(string) string {
	lookup := make(map[string]string, len(specs)*2)
	for _, spec := range specs {
		lookup[strings.ToLower(spec.Key)] = spec.Key
		lookup[strings.ToLower(spec.Label)] = spec.Key
	}
	return func(h string) string {
		h = strings.ToLower(strings.TrimSpace(h))
		if key, ok := lookup[h]; ok {
			return key
		}
		return lookup[strings.ReplaceAll(h, " ", "_")]
	}
}

func importError(err error) error {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrInvalidEncoding),
		errors.Is(err, csvimport.ErrMissingHeader),
		errors.Is(err, csvimport.ErrNoDataRows),
		errors.Is(err, csvimport.ErrTooManyRows):
		return shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
