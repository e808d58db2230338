package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// commandKind identifies which operation a Command carries; the
// remaining Command fields are read according to it.
type commandKind int

const (
	kindRegisterCell commandKind = iota
	kindRemoveCell
	kindExecute
	kindSetDatabaseConfig
	kindShutdown
)

// Command is a single inbound kernel request. Build one with the
// constructor matching the operation you want; the kernel's run loop
// drains these strictly FIFO.
type Command struct {
	kind commandKind

	cellID           string
	code             string
	language         models.Language
	connectionString string
}

// RegisterCell builds a register_cell command (spec.md §4.4).
func RegisterCell(cellID, code string, language models.Language) Command {
	return Command{kind: kindRegisterCell, cellID: cellID, code: code, language: language}
}

// RemoveCell builds a remove_cell command.
func RemoveCell(cellID string) Command {
	return Command{kind: kindRemoveCell, cellID: cellID}
}

// Execute builds an execute command.
func Execute(cellID string) Command {
	return Command{kind: kindExecute, cellID: cellID}
}

// SetDatabaseConfig builds a set_database_config command.
func SetDatabaseConfig(connectionString string) Command {
	return Command{kind: kindSetDatabaseConfig, connectionString: connectionString}
}

// Shutdown builds a shutdown command. The run loop processes every command
// queued before it, then closes the notification channel and returns;
// commands queued after it are not processed.
func Shutdown() Command {
	return Command{kind: kindShutdown}
}

// wireCommand is the JSON shape of the kernel IPC command schemas from
// spec.md §6, shared by every command kind (unused fields are simply
// omitted on encode and ignored on decode).
type wireCommand struct {
	Type             string          `json:"type"`
	CellID           string          `json:"cell_id,omitempty"`
	Code             string          `json:"code,omitempty"`
	CellType         models.Language `json:"cell_type,omitempty"`
	ConnectionString string          `json:"connection_string,omitempty"`
}

// MarshalJSON encodes Command using the kernel IPC wire schema so a
// Command can be sent as one line of a newline-delimited JSON stream to a
// kernel running as a separate OS process (cmd/kernel).
func (c Command) MarshalJSON() ([]byte, error) {
	w := wireCommand{CellID: c.cellID, Code: c.code, CellType: c.language, ConnectionString: c.connectionString}
	switch c.kind {
	case kindRegisterCell:
		w.Type = "register_cell"
	case kindRemoveCell:
		w.Type = "remove_cell"
	case kindExecute:
		w.Type = "execute"
	case kindSetDatabaseConfig:
		w.Type = "set_database_config"
	case kindShutdown:
		w.Type = "shutdown"
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a kernel IPC command line into a Command.
func (c *Command) UnmarshalJSON(data []byte) error {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "register_cell":
		*c = RegisterCell(w.CellID, w.Code, w.CellType)
	case "remove_cell":
		*c = RemoveCell(w.CellID)
	case "execute":
		*c = Execute(w.CellID)
	case "set_database_config":
		*c = SetDatabaseConfig(w.ConnectionString)
	case "shutdown":
		*c = Shutdown()
	default:
		return fmt.Errorf("unknown kernel command type: %q", w.Type)
	}
	return nil
}
