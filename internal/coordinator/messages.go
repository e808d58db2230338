package coordinator

import "github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"

// ServerEvent is the client-facing shape the coordinator's draining task
// translates every kernel CellNotification into (spec.md §6 "Server-to-
// client events"). The gateway marshals these directly to the client's
// WebSocket connection.
type ServerEvent struct {
	Type   string       `json:"type"`
	CellID string       `json:"cellId,omitempty"`
	Status string       `json:"status,omitempty"`
	Data   any          `json:"data,omitempty"`
	Output *EventOutput `json:"output,omitempty"`
	Error  string       `json:"error,omitempty"`
	Cell   *models.Cell `json:"cell,omitempty"`
	Index  *int         `json:"index,omitempty"`
}

// EventOutput mirrors spec.md's cell_output payload shape.
type EventOutput struct {
	MimeType string         `json:"mime_type"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// translate converts one kernel notification into the client-facing event
// shape, per spec.md §4.5's "Output draining" responsibility.
func translate(n models.CellNotification) ServerEvent {
	switch n.Output.Channel {
	case models.ChannelStatus:
		return ServerEvent{Type: "cell_status", CellID: n.CellID, Status: n.Output.Data.(string)}
	case models.ChannelStdout:
		return ServerEvent{Type: "cell_stdout", CellID: n.CellID, Data: n.Output.Data}
	case models.ChannelOutput:
		return ServerEvent{
			Type:   "cell_output",
			CellID: n.CellID,
			Output: &EventOutput{MimeType: n.Output.MimeType, Data: n.Output.Data},
		}
	case models.ChannelError:
		errText, _ := n.Output.Data.(string)
		return ServerEvent{Type: "cell_error", CellID: n.CellID, Error: errText}
	case models.ChannelMetadata:
		return ServerEvent{Type: "cell_updated", CellID: n.CellID, Data: n.Output.Data}
	default:
		return ServerEvent{Type: "cell_updated", CellID: n.CellID, Data: n.Output.Data}
	}
}

// authenticatedEvent acks the no-op authenticate command (spec.md §6).
func authenticatedEvent() ServerEvent { return ServerEvent{Type: "authenticated"} }

// kernelErrorEvent is the terminal event emitted when the kernel process
// is detected dead (spec.md §4.4 "Failure semantics").
func kernelErrorEvent(err error) ServerEvent {
	return ServerEvent{Type: "kernel_error", Error: err.Error()}
}

func cellCreatedEvent(cell *models.Cell, index *int) ServerEvent {
	return ServerEvent{Type: "cell_created", CellID: cell.ID, Cell: cell, Index: index}
}

func cellDeletedEvent(cellID string) ServerEvent {
	return ServerEvent{Type: "cell_deleted", CellID: cellID}
}
