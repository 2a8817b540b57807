package sink

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/modules"
)

const (
	dataSheetTitle = "Data"
	docSheetTitle  = "Columns"
)

// SheetsSink writes records to a Google Sheets spreadsheet created inside a
// named Drive folder: record rows on the Data sheet and the provenance
// documentation table on the Columns sheet.
type SheetsSink struct {
	sheets *sheets.Service
	drive  *drive.Service

	title   string
	folder  string
	folders *FolderCache

	schema        *modules.Schema
	spreadsheetID string
}

// NewSheets creates a Sheets sink. credentialsFile points at a service
// account key; when empty, application-default credentials are used. title
// names the spreadsheet, folder names the Drive folder it is created in.
func NewSheets(ctx context.Context, credentialsFile, title, folder string) (*SheetsSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewSinkError("sheets", "create service", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.NewSinkError("sheets", "create service", err)
	}

	return &SheetsSink{
		sheets:  sheetsSvc,
		drive:   driveSvc,
		title:   title,
		folder:  folder,
		folders: NewFolderCache(),
	}, nil
}

// EnsureSchema creates the spreadsheet in the destination folder and writes
// the header row and the documentation table.
func (s *SheetsSink) EnsureSchema(ctx context.Context, schema *modules.Schema) error {
	s.schema = schema

	folderID, err := s.resolveFolder(ctx)
	if err != nil {
		return err
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: s.title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: dataSheetTitle}},
			{Properties: &sheets.SheetProperties{Title: docSheetTitle}},
		},
	}
	created, err := s.sheets.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return errors.NewSinkError("sheets", "create spreadsheet", err)
	}
	s.spreadsheetID = created.SpreadsheetId

	if folderID != "" {
		_, err = s.drive.Files.Update(s.spreadsheetID, nil).
			AddParents(folderID).
			RemoveParents("root").
			Context(ctx).Do()
		if err != nil {
			return errors.NewSinkError("sheets", "move to folder", err)
		}
	}

	if err := s.writeRange(ctx, dataSheetTitle+"!A1", [][]any{toAnyRow(schema.Headers())}); err != nil {
		return err
	}

	docRows := [][]any{{"column", "header", "module", "source", "algorithm"}}
	for _, row := range schema.Documentation() {
		docRows = append(docRows, []any{row.ColumnID, row.Header, row.Module, row.SourceLabel, row.Algorithm})
	}
	if err := s.writeRange(ctx, docSheetTitle+"!A1", docRows); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("spreadsheet_id", s.spreadsheetID).
		Str("title", s.title).
		Msg("Created spreadsheet")
	return nil
}

// Append appends one record row to the Data sheet.
func (s *SheetsSink) Append(ctx context.Context, record *modules.Record) error {
	if s.spreadsheetID == "" {
		return errors.NewSinkError("sheets", "append", errors.ErrInvalidInput)
	}

	values := &sheets.ValueRange{Values: [][]any{toAnyRow(s.schema.Row(record.Values))}}
	_, err := s.sheets.Spreadsheets.Values.Append(s.spreadsheetID, dataSheetTitle+"!A1", values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return errors.NewSinkError("sheets", "append", err)
	}
	return nil
}

// Close is a no-op; the Sheets API has no buffered state.
func (s *SheetsSink) Close() error {
	return nil
}

// resolveFolder finds the destination folder's Drive ID, consulting the
// write-once cache first. An empty folder name keeps the spreadsheet in the
// Drive root.
func (s *SheetsSink) resolveFolder(ctx context.Context) (string, error) {
	if s.folder == "" {
		return "", nil
	}
	if id, ok := s.folders.Get(s.folder); ok {
		return id, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.folder' and trashed = false", s.folder)
	list, err := s.drive.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", errors.NewSinkError("sheets", "resolve folder", err)
	}
	if len(list.Files) == 0 {
		return "", errors.NewSinkError("sheets", "resolve folder",
			fmt.Errorf("folder %q: %w", s.folder, errors.ErrNotFound))
	}

	id := list.Files[0].Id
	if err := s.folders.Set(s.folder, id); err != nil {
		return "", errors.NewSinkError("sheets", "resolve folder", err)
	}
	return id, nil
}

// writeRange writes a block of cells starting at the given A1 range.
func (s *SheetsSink) writeRange(ctx context.Context, rangeA1 string, rows [][]any) error {
	values := &sheets.ValueRange{Values: rows}
	_, err := s.sheets.Spreadsheets.Values.Update(s.spreadsheetID, rangeA1, values).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return errors.NewSinkError("sheets", "write "+rangeA1, err)
	}
	return nil
}

func toAnyRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
