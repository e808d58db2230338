package gateway

import "github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"

// Client command types (spec.md §6 "Client-to-server messages").
const (
	CmdAuthenticate       = "authenticate"
	CmdCellUpdate         = "cell_update"
	CmdCreateCell         = "create_cell"
	CmdDeleteCell         = "delete_cell"
	CmdRunCell            = "run_cell"
	CmdUpdateDBConnection = "update_db_connection"
)

// ClientMessage is the single inbound shape every WebSocket frame decodes
// into; only the fields relevant to Type are populated.
type ClientMessage struct {
	Type             string          `json:"type"`
	CellID           string          `json:"cellId,omitempty"`
	Code             string          `json:"code,omitempty"`
	CellType         models.Language `json:"cellType,omitempty"`
	AfterCellID      string          `json:"afterCellId,omitempty"`
	ConnectionString string          `json:"connectionString,omitempty"`
}
