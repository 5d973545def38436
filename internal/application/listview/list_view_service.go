package listview

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/crm/backend/internal/domain/listview"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/export"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultPageSize     = 25
	defaultMaxPageSize  = 200
	defaultMaxQueryRows = 50000
)

// ExportStore keeps stored exports and hands out download links
type ExportStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	PresignGet(ctx context.Context, objectKey string) (string, time.Time, error)
}

// ExportRecorder counts finished exports
type ExportRecorder interface {
	RecordExport(ctx context.Context, table, delivery string)
}

// ListViewService runs the table pipeline (columns, saved views, filtering,
// sorting, paging and CSV export) for every CRM list
type ListViewService struct {
	registry *listview.Registry
	sources  Sources
	views    listview.ViewRepository
	prefs    listview.ColumnPreferenceRepository
	store    ExportStore
	metrics  ExportRecorder
	cfg      config.ViewsConfig
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a ListViewService
type Option func(*ListViewService)

// WithExportStore enables stored exports
func WithExportStore(store ExportStore) Option {
	return func(s *ListViewService) { s.store = store }
}

// WithExportRecorder counts exports
func WithExportRecorder(r ExportRecorder) Option {
	return func(s *ListViewService) { s.metrics = r }
}

// NewListViewService creates a new ListViewService
func NewListViewService(
	registry *listview.Registry,
	sources Sources,
	views listview.ViewRepository,
	prefs listview.ColumnPreferenceRepository,
	cfg config.ViewsConfig,
	logger *zap.Logger,
	opts ...Option,
) *ListViewService {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	if cfg.MaxQueryRows <= 0 {
		cfg.MaxQueryRows = defaultMaxQueryRows
	}
	s := &ListViewService{
		registry: registry,
		sources:  sources,
		views:    views,
		prefs:    prefs,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tables lists every table with its columns and operators
func (s *ListViewService) Tables() []TableResponse {
	tables := s.registry.All()
	out := make([]TableResponse, len(tables))
	for i, t := range tables {
		out[i] = ToTableResponse(t)
	}
	return out
}

// Table describes one table
func (s *ListViewService) Table(key string) (*TableResponse, error) {
	t, err := s.registry.Get(key)
	if err != nil {
		return nil, err
	}
	response := ToTableResponse(t)
	return &response, nil
}

// GetColumns returns the user's column layout fitted to the current
// catalogue. A stored layout that needed repair is written back.
func (s *ListViewService) GetColumns(ctx context.Context, userID uuid.UUID, tableKey string) (*ColumnsResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	state, dropped, err := s.loadColumns(ctx, userID, table)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		if err := s.prefs.Save(ctx, userID, table.ColumnsKey(), state); err != nil {
			s.logger.Warn("Failed to store repaired column layout", zap.String("table", table.Key), zap.Error(err))
		}
	}
	return columnsResponse(table, state, dropped), nil
}

// SaveColumns stores a column layout after fitting it to the catalogue
func (s *ListViewService) SaveColumns(ctx context.Context, userID uuid.UUID, tableKey string, state listview.ColumnState) (*ColumnsResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	if len(state.Order) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Column order is required")
	}
	fitted, dropped := listview.ReconcileColumns(table, state)
	s.warnDropped(table, userID, dropped)
	if err := s.prefs.Save(ctx, userID, table.ColumnsKey(), fitted); err != nil {
		return nil, err
	}
	return columnsResponse(table, fitted, dropped), nil
}

// MoveColumn moves one column of the user's layout to a new position
func (s *ListViewService) MoveColumn(ctx context.Context, userID uuid.UUID, tableKey, column string, toIndex int) (*ColumnsResponse, error) {
	return s.editColumns(ctx, userID, tableKey, func(state listview.ColumnState) (listview.ColumnState, error) {
		return listview.MoveColumn(state, column, toIndex)
	})
}

// SetColumnHidden shows or hides one column of the user's layout
func (s *ListViewService) SetColumnHidden(ctx context.Context, userID uuid.UUID, tableKey, column string, hidden bool) (*ColumnsResponse, error) {
	return s.editColumns(ctx, userID, tableKey, func(state listview.ColumnState) (listview.ColumnState, error) {
		return listview.SetColumnHidden(state, column, hidden)
	})
}

// ResetColumns drops the stored layout and returns the defaults
func (s *ListViewService) ResetColumns(ctx context.Context, userID uuid.UUID, tableKey string) (*ColumnsResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	if err := s.prefs.Delete(ctx, userID, table.ColumnsKey()); err != nil {
		return nil, err
	}
	return columnsResponse(table, table.DefaultState(), nil), nil
}

func (s *ListViewService) editColumns(ctx context.Context, userID uuid.UUID, tableKey string, edit func(listview.ColumnState) (listview.ColumnState, error)) (*ColumnsResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	state, _, err := s.loadColumns(ctx, userID, table)
	if err != nil {
		return nil, err
	}
	next, err := edit(state)
	if err != nil {
		return nil, err
	}
	if err := s.prefs.Save(ctx, userID, table.ColumnsKey(), next); err != nil {
		return nil, err
	}
	return columnsResponse(table, next, nil), nil
}

func (s *ListViewService) loadColumns(ctx context.Context, userID uuid.UUID, table listview.Table) (listview.ColumnState, []string, error) {
	stored, found, err := s.prefs.Find(ctx, userID, table.ColumnsKey())
	if err != nil {
		return listview.ColumnState{}, nil, err
	}
	if !found {
		return table.DefaultState(), nil, nil
	}
	state, dropped := listview.ReconcileColumns(table, stored)
	s.warnDropped(table, userID, dropped)
	return state, dropped, nil
}

func (s *ListViewService) warnDropped(table listview.Table, userID uuid.UUID, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	s.logger.Warn("Dropped unknown columns from layout",
		zap.String("table", table.Key),
		zap.String("user_id", userID.String()),
		zap.Strings("columns", dropped))
}

func columnsResponse(table listview.Table, state listview.ColumnState, dropped []string) *ColumnsResponse {
	return &ColumnsResponse{
		Table:   table.Key,
		Key:     table.ColumnsKey(),
		State:   state,
		Visible: listview.VisibleColumns(table, state),
		Dropped: dropped,
	}
}

// ListViews returns the user's views for a table plus views shared by others
func (s *ListViewService) ListViews(ctx context.Context, userID uuid.UUID, tableKey string) ([]ViewResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	views, err := s.views.FindVisible(ctx, userID, table.Key)
	if err != nil {
		return nil, err
	}
	items := make([]ViewResponse, len(views))
	for i := range views {
		items[i] = ToViewResponse(&views[i], userID)
	}
	return items, nil
}

// GetView returns a view the user owns or that is shared
func (s *ListViewService) GetView(ctx context.Context, userID, id uuid.UUID) (*ViewResponse, error) {
	view, err := s.visibleView(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	response := ToViewResponse(view, userID)
	return &response, nil
}

// CreateView saves a new view. Names are unique per user and table, and a
// new default view clears the previous default.
func (s *ListViewService) CreateView(ctx context.Context, userID uuid.UUID, tableKey string, req ViewRequest) (*ViewResponse, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	view, err := listview.NewView(userID, table, req.toDomain())
	if err != nil {
		return nil, err
	}
	if err := s.saveView(ctx, view); err != nil {
		return nil, err
	}

	s.logger.Info("List view created",
		zap.String("view_id", view.ID.String()),
		zap.String("table", view.Table),
		zap.String("name", view.Name))
	response := ToViewResponse(view, userID)
	return &response, nil
}

// UpdateView replaces a view owned by the user
func (s *ListViewService) UpdateView(ctx context.Context, userID, id uuid.UUID, req ViewRequest) (*ViewResponse, error) {
	view, err := s.ownedView(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	table, err := s.registry.Get(view.Table)
	if err != nil {
		return nil, err
	}
	if err := view.Update(table, req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.saveView(ctx, view); err != nil {
		return nil, err
	}
	response := ToViewResponse(view, userID)
	return &response, nil
}

// DeleteView removes a view owned by the user
func (s *ListViewService) DeleteView(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedView(ctx, userID, id); err != nil {
		return err
	}
	if err := s.views.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("List view deleted", zap.String("view_id", id.String()))
	return nil
}

func (s *ListViewService) saveView(ctx context.Context, view *listview.View) error {
	return s.views.WithTx(ctx, func(repo listview.ViewRepository) error {
		owned, err := repo.FindOwned(ctx, view.OwnerID, view.Table)
		if err != nil {
			return err
		}
		if err := listview.CheckNameAvailable(owned, view); err != nil {
			return err
		}
		if view.IsDefault {
			if err := repo.ClearDefault(ctx, view.OwnerID, view.Table, view.ID); err != nil {
				return err
			}
		}
		return repo.Save(ctx, view)
	})
}

func (s *ListViewService) visibleView(ctx context.Context, userID, id uuid.UUID) (*listview.View, error) {
	view, err := s.views.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.OwnerID != userID && !view.Shared {
		return nil, shared.NewDomainError("NOT_FOUND", "View not found")
	}
	return view, nil
}

func (s *ListViewService) ownedView(ctx context.Context, userID, id uuid.UUID) (*listview.View, error) {
	view, err := s.visibleView(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if view.OwnerID != userID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the owner can change a view")
	}
	return view, nil
}

// plan is a resolved query: conditions, sort and layout
type plan struct {
	table   listview.Table
	conds   []listview.Condition
	match   listview.Match
	sortBy  string
	sortDir listview.SortDir
	columns listview.ColumnState
	ignored []listview.ConditionIssue
}

func (s *ListViewService) resolve(ctx context.Context, userID uuid.UUID, tableKey string, req QueryRequest) (*plan, error) {
	table, err := s.registry.Get(tableKey)
	if err != nil {
		return nil, err
	}
	p := &plan{table: table, match: listview.MatchAll}

	if req.ViewID != nil {
		view, err := s.visibleView(ctx, userID, *req.ViewID)
		if err != nil {
			return nil, err
		}
		if view.Table != table.Key {
			return nil, shared.NewDomainError("INVALID_INPUT", "View belongs to another table")
		}
		p.conds, p.match = view.Conditions, view.Match
		p.sortBy, p.sortDir = view.SortBy, view.SortDir
		p.columns, _ = listview.ReconcileColumns(table, view.Columns)
	} else {
		p.columns, _, err = s.loadColumns(ctx, userID, table)
		if err != nil {
			return nil, err
		}
	}

	if len(req.Conditions) > 0 {
		p.conds = req.Conditions
	}
	if req.Match != "" {
		m := listview.Match(req.Match)
		if !m.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Match must be all or any")
		}
		p.match = m
	}
	if req.SortBy != "" {
		col, ok := table.Column(req.SortBy)
		if !ok || !col.Sortable {
			return nil, shared.NewDomainError("INVALID_INPUT", "Column is not sortable: "+req.SortBy)
		}
		p.sortBy, p.sortDir = req.SortBy, listview.SortAsc
		if listview.SortDir(req.SortDir) == listview.SortDesc {
			p.sortDir = listview.SortDesc
		}
	}

	p.ignored = listview.ValidateConditions(table, p.conds)
	if len(p.ignored) > 0 {
		reasons := make([]string, len(p.ignored))
		for i, issue := range p.ignored {
			reasons[i] = issue.String()
		}
		s.logger.Warn("Ignoring unusable filter conditions", zap.String("table", table.Key), zap.Strings("issues", reasons))
	}
	return p, nil
}

// run loads, filters and sorts the rows of a plan. Filtering sees every
// loaded row; only the matches are capped at MaxQueryRows. matched is the
// number of matches before the cap.
func (s *ListViewService) run(ctx context.Context, p *plan) (rows []listview.Record, matched int, err error) {
	source, ok := s.sources[p.table.Key]
	if !ok {
		return nil, 0, shared.NewDomainError("NOT_FOUND", "Table has no data source")
	}
	rows, err = source(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows = listview.Filter(rows, p.table, p.conds, p.match)
	if p.sortBy != "" {
		col, _ := p.table.Column(p.sortBy)
		rows = listview.Sort(rows, col, p.sortDir)
	}
	matched = len(rows)
	if matched > s.cfg.MaxQueryRows {
		s.logger.Warn("Query matches exceed row limit",
			zap.String("table", p.table.Key),
			zap.Int("rows", matched),
			zap.Int("limit", s.cfg.MaxQueryRows))
		rows = rows[:s.cfg.MaxQueryRows]
	}
	return rows, matched, nil
}

// Query filters, sorts and pages a table. Each row carries the id plus the
// visible columns.
func (s *ListViewService) Query(ctx context.Context, userID uuid.UUID, tableKey string, req QueryRequest) (_ *QueryResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "listview", "query", attribute.String("table", tableKey))
	defer func() { telemetry.EndSpan(span, err) }()

	p, err := s.resolve(ctx, userID, tableKey, req)
	if err != nil {
		return nil, err
	}
	rows, matched, err := s.run(ctx, p)
	if err != nil {
		return nil, err
	}

	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, s.cfg.MaxPageSize)

	visible := listview.VisibleColumns(p.table, p.columns)
	pageRows := listview.Page(rows, page, pageSize)
	out := make([]map[string]any, len(pageRows))
	for i, rec := range pageRows {
		row := make(map[string]any, len(visible)+1)
		row["id"], _ = rec.Value("id")
		for _, col := range visible {
			row[col.Key], _ = rec.Value(col.Key)
		}
		out[i] = row
	}

	return &QueryResult{
		Columns:   visible,
		Rows:      out,
		Total:     matched,
		Page:      page,
		PageSize:  pageSize,
		Truncated: matched > len(rows),
		Ignored:   p.ignored,
	}, nil
}

// Export renders the filtered and sorted rows of a table as CSV with the
// visible columns. Stored exports are uploaded and returned as a link.
func (s *ListViewService) Export(ctx context.Context, userID uuid.UUID, tableKey string, req ExportRequest) (_ *ExportFile, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "listview", "export", attribute.String("table", tableKey))
	defer func() { telemetry.EndSpan(span, err) }()

	delivery := req.Delivery
	if delivery == "" {
		delivery = DeliveryStream
	}
	if delivery != DeliveryStream && delivery != DeliveryStored {
		return nil, shared.NewDomainError("INVALID_INPUT", "Delivery must be stream or stored")
	}
	if delivery == DeliveryStored && s.store == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Stored exports are not configured")
	}

	p, err := s.resolve(ctx, userID, tableKey, req.QueryRequest)
	if err != nil {
		return nil, err
	}
	rows, matched, err := s.run(ctx, p)
	if err != nil {
		return nil, err
	}
	if matched > len(rows) {
		return nil, shared.NewDomainError("INVALID_STATE", "Table is too large to export")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, listview.VisibleColumns(p.table, p.columns), rows, export.Options{BOM: req.BOM}); err != nil {
		return nil, err
	}
	file := &ExportFile{
		Name:        export.FileName(p.table.Key, s.now()),
		ContentType: export.ContentType,
		Rows:        len(rows),
	}

	if delivery == DeliveryStream {
		file.Data = buf.Bytes()
	} else {
		key, err := s.store.Upload(ctx, "exports/"+userID.String()+"/"+file.Name, export.ContentType, &buf)
		if err != nil {
			return nil, err
		}
		url, expires, err := s.store.PresignGet(ctx, key)
		if err != nil {
			return nil, err
		}
		file.ObjectKey, file.URL, file.ExpiresAt = key, url, &expires
	}

	if s.metrics != nil {
		s.metrics.RecordExport(ctx, p.table.Key, delivery)
	}
	s.logger.Info("Table exported",
		zap.String("table", p.table.Key),
		zap.String("delivery", delivery),
		zap.Int("rows", file.Rows))
	return file, nil
}
