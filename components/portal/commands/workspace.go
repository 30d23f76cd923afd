package commands

import (
	"context"
	"errors"
	"io"

	gocommand "github.com/goliatone/go-command"
	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

type workspaces interface {
	Workspace(session portal.Session) *portal.Workspace
}

var errNoWorkspaces = errors.New("command requires portal service")

func resolve(service workspaces, session portal.Session) (*portal.Workspace, error) {
	if service == nil {
		return nil, errNoWorkspaces
	}
	if !session.IsAuthenticated() {
		return nil, portal.ErrUnauthenticated
	}
	return service.Workspace(session), nil
}

// SelectSectionInput switches the active section of a session.
type SelectSectionInput struct {
	Session portal.Session
	Section portal.SectionID
}

// SelectSectionCommand loads the selected section into the workspace.
type SelectSectionCommand struct {
	service workspaces
}

// NewSelectSectionCommand creates the command.
func NewSelectSectionCommand(service workspaces) *SelectSectionCommand {
	return &SelectSectionCommand{service: service}
}

var _ gocommand.Commander[SelectSectionInput] = (*SelectSectionCommand)(nil)

// Execute selects the section. Fetch failures are already surfaced as toasts
// and are not returned.
func (c *SelectSectionCommand) Execute(ctx context.Context, msg SelectSectionInput) error {
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	err = ws.Select(ctx, msg.Section)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, portal.ErrFetchFailure), errors.Is(err, portal.ErrMalformedAggregate):
		return nil
	default:
		return err
	}
}

// TableAction names a table interaction.
type TableAction string

const (
	TableSearch TableAction = "search"
	TableSort   TableAction = "sort"
	TablePage   TableAction = "page"
)

// UpdateTableInput applies a search, sort or page change to the current table.
type UpdateTableInput struct {
	Session portal.Session
	Action  TableAction
	Term    string
	SortKey string
	Page    int
	Result  *portal.TableState
}

// UpdateTableCommand mutates the table state of a workspace.
type UpdateTableCommand struct {
	service workspaces
}

// NewUpdateTableCommand creates the command.
func NewUpdateTableCommand(service workspaces) *UpdateTableCommand {
	return &UpdateTableCommand{service: service}
}

var _ gocommand.Commander[UpdateTableInput] = (*UpdateTableCommand)(nil)

// Execute applies the action.
func (c *UpdateTableCommand) Execute(_ context.Context, msg UpdateTableInput) error {
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	var state portal.TableState
	switch msg.Action {
	case TableSearch:
		state = ws.Search(msg.Term)
	case TableSort:
		state = ws.Sort(msg.SortKey)
	case TablePage:
		state = ws.GoToPage(msg.Page)
	default:
		return errors.New("unknown table action: " + string(msg.Action))
	}
	if msg.Result != nil {
		*msg.Result = state
	}
	return nil
}

// ToggleNavigationInput toggles a sidebar group, or the sidebar itself when
// Group is empty.
type ToggleNavigationInput struct {
	Session portal.Session
	Group   string
}

// ToggleNavigationCommand handles sidebar toggles.
type ToggleNavigationCommand struct {
	service workspaces
}

// NewToggleNavigationCommand creates the command.
func NewToggleNavigationCommand(service workspaces) *ToggleNavigationCommand {
	return &ToggleNavigationCommand{service: service}
}

var _ gocommand.Commander[ToggleNavigationInput] = (*ToggleNavigationCommand)(nil)

// Execute toggles the group or the sidebar.
func (c *ToggleNavigationCommand) Execute(_ context.Context, msg ToggleNavigationInput) error {
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	if msg.Group == "" {
		ws.ToggleSidebar()
		return nil
	}
	return ws.ToggleGroup(msg.Group)
}

// DownloadInvoiceInput requests the PDF of an invoice row.
type DownloadInvoiceInput struct {
	Session    portal.Session
	DocumentID string
	Result     *portal.Download
}

// DownloadInvoiceCommand fetches and decodes an invoice PDF.
type DownloadInvoiceCommand struct {
	service workspaces
}

// NewDownloadInvoiceCommand creates the command.
func NewDownloadInvoiceCommand(service workspaces) *DownloadInvoiceCommand {
	return &DownloadInvoiceCommand{service: service}
}

var _ gocommand.Commander[DownloadInvoiceInput] = (*DownloadInvoiceCommand)(nil)

// Execute downloads the document.
func (c *DownloadInvoiceCommand) Execute(ctx context.Context, msg DownloadInvoiceInput) error {
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	download, err := ws.DownloadInvoice(ctx, msg.DocumentID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = download
	}
	return nil
}

// ExportTableInput writes the current table as XLSX to Out.
type ExportTableInput struct {
	Session portal.Session
	Out     io.Writer
	Result  *portal.Export
}

// ExportTableCommand exports the filtered table.
type ExportTableCommand struct {
	service workspaces
}

// NewExportTableCommand creates the command.
func NewExportTableCommand(service workspaces) *ExportTableCommand {
	return &ExportTableCommand{service: service}
}

var _ gocommand.Commander[ExportTableInput] = (*ExportTableCommand)(nil)

// Execute renders the workbook.
func (c *ExportTableCommand) Execute(ctx context.Context, msg ExportTableInput) error {
	if msg.Out == nil {
		return errors.New("export command requires a writer")
	}
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	export, err := ws.ExportTable(ctx, msg.Out)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = export
	}
	return nil
}

// DismissToastInput removes a notification from a session's queue.
type DismissToastInput struct {
	Session portal.Session
	ToastID string
}

// DismissToastCommand dismisses a toast.
type DismissToastCommand struct {
	service workspaces
}

// NewDismissToastCommand creates the command.
func NewDismissToastCommand(service workspaces) *DismissToastCommand {
	return &DismissToastCommand{service: service}
}

var _ gocommand.Commander[DismissToastInput] = (*DismissToastCommand)(nil)

// Execute dismisses the toast. Unknown ids are ignored.
func (c *DismissToastCommand) Execute(_ context.Context, msg DismissToastInput) error {
	ws, err := resolve(c.service, msg.Session)
	if err != nil {
		return err
	}
	ws.Toasts().Dismiss(msg.ToastID)
	return nil
}
