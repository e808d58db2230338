package models

import "time"

// NotificationChannel discriminates the single outbound message shape
// the kernel emits on its notification queue.
type NotificationChannel string

const (
	ChannelStatus   NotificationChannel = "status"
	ChannelStdout   NotificationChannel = "stdout"
	ChannelOutput   NotificationChannel = "output"
	ChannelError    NotificationChannel = "error"
	ChannelMetadata NotificationChannel = "metadata"
)

// CellNotification is the only outbound message shape from the kernel to
// the coordinator. Every kernel command handler emits zero or more of
// these onto the kernel's notification queue, strictly in emission order.
type CellNotification struct {
	CellID string `json:"cell_id"`
	Output NotificationPayload `json:"output"`
}

// NotificationPayload carries the channel-specific body of a notification.
type NotificationPayload struct {
	Channel   NotificationChannel `json:"channel"`
	MimeType  string              `json:"mime_type,omitempty"`
	Data      any                 `json:"data"`
	Timestamp int64               `json:"timestamp"`
}

// NewStatusNotification builds a status-channel notification for cellID.
func NewStatusNotification(cellID string, status CellStatus) CellNotification {
	return CellNotification{
		CellID: cellID,
		Output: NotificationPayload{
			Channel:   ChannelStatus,
			MimeType:  MimeTextPlain,
			Data:      string(status),
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// NewStdoutNotification builds a stdout-channel notification.
func NewStdoutNotification(cellID, data string) CellNotification {
	return CellNotification{
		CellID: cellID,
		Output: NotificationPayload{
			Channel:   ChannelStdout,
			MimeType:  MimeTextPlain,
			Data:      data,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// NewOutputNotification builds an output-channel notification from a rich
// Output produced by the executor.
func NewOutputNotification(cellID string, out Output) CellNotification {
	return CellNotification{
		CellID: cellID,
		Output: NotificationPayload{
			Channel:   ChannelOutput,
			MimeType:  out.MimeType,
			Data:      out.Data,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// NewErrorNotification builds an error-channel notification.
func NewErrorNotification(cellID, message string) CellNotification {
	return CellNotification{
		CellID: cellID,
		Output: NotificationPayload{
			Channel:   ChannelError,
			MimeType:  MimeTextPlain,
			Data:      message,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// MetadataPayload is the Data shape carried by a metadata-channel
// notification: the cell's final inferred reads/writes after registration.
type MetadataPayload struct {
	Reads  []string `json:"reads"`
	Writes []string `json:"writes"`
}

// NewMetadataNotification builds a metadata-channel notification.
func NewMetadataNotification(cellID string, reads, writes []string) CellNotification {
	if reads == nil {
		reads = []string{}
	}
	if writes == nil {
		writes = []string{}
	}
	return CellNotification{
		CellID: cellID,
		Output: NotificationPayload{
			Channel:   ChannelMetadata,
			MimeType:  MimeApplicationJSON,
			Data:      MetadataPayload{Reads: reads, Writes: writes},
			Timestamp: time.Now().UnixMilli(),
		},
	}
}
