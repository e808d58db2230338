package models

import "time"

// Language identifies the interpreter a cell's source runs under.
type Language string

const (
	LanguagePython Language = "python"
	LanguageSQL    Language = "sql"
)

// CellStatus mirrors the client-visible status badge of a cell.
type CellStatus string

const (
	CellStatusIdle    CellStatus = "idle"
	CellStatusRunning CellStatus = "running"
	CellStatusSuccess CellStatus = "success"
	CellStatusError   CellStatus = "error"
	CellStatusBlocked CellStatus = "blocked"
)

// Cell is a single unit of code with its own identity, source, and
// display state. The kernel stores only Code/Language; the coordinator's
// mirror additionally carries the transient Status/Stdout/Outputs/Error.
type Cell struct {
	ID       string   `json:"id"`
	Language Language `json:"language"`
	Code     string   `json:"code"`

	Status CellStatus `json:"status"`
	Stdout string     `json:"stdout,omitempty"`
	Outputs []Output  `json:"outputs,omitempty"`
	Error   string    `json:"error,omitempty"`

	Reads  []string `json:"reads"`
	Writes []string `json:"writes"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Output is a MIME-style display bundle emitted by the executor and
// propagated unchanged through the kernel, the coordinator, and the
// gateway.
type Output struct {
	MimeType string         `json:"mime_type"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Table is the structured shape used for SQL result sets and tabular
// frame display values. It is always carried as Output.Data with
// MimeType MimeApplicationJSON.
type Table struct {
	Type    string `json:"type"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable builds a Table output payload with Type pre-filled.
func NewTable(columns []string, rows [][]any) Table {
	return Table{Type: "table", Columns: columns, Rows: rows}
}

// Supported MIME types the executor produces.
const (
	MimeImagePNG         = "image/png"
	MimeTextHTML         = "text/html"
	MimePlotlyV1JSON     = "application/vnd.plotly.v1+json"
	MimeVegaLiteV6JSON   = "application/vnd.vegalite.v6+json"
	MimeApplicationJSON  = "application/json"
	MimeTextPlain        = "text/plain"
)

// Notebook is the durable-storage shape for a notebook: its identity, its
// configured database connection (if any), and the ordered sequence of
// cells it owns. Owned by the storage collaborator, not by the kernel.
type Notebook struct {
	ID           string `json:"id" bun:",pk"`
	Name         string `json:"name,omitempty"`
	DBConnection string `json:"db_connection,omitempty"`
	Cells        []NotebookCell `json:"cells" bun:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotebookCell is the durable-storage shape of a single cell: just
// identity, type, and code. Transient display state never persists.
type NotebookCell struct {
	ID         string   `json:"id" bun:",pk"`
	NotebookID string   `json:"notebookId" bun:"notebook_id"`
	Type       Language `json:"type"`
	Code       string   `json:"code"`
	Position   int      `json:"position"`
}
