package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"yeargrid/internal/core"
)

// GridSubmittedMessage carries an accepted grid with its computed cells.
// Decimals travel as strings so no precision is lost on the wire.
type GridSubmittedMessage struct {
	SessionID   string         `json:"session_id"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Tables      []TablePayload `json:"tables"`
}

type TablePayload struct {
	ID   int          `json:"id"`
	Rows []RowPayload `json:"rows"`
}

type RowPayload struct {
	Year     int                     `json:"year"`
	Months   [12]decimal.NullDecimal `json:"months"`
	Quarters [4]decimal.Decimal      `json:"quarters"`
	YTD      decimal.Decimal         `json:"ytd"`
}

// NewGridSubmittedMessage snapshots a computed grid.
func NewGridSubmittedMessage(sessionID string, g core.Grid, at time.Time) *GridSubmittedMessage {
	msg := &GridSubmittedMessage{
		SessionID:   sessionID,
		SubmittedAt: at,
		Tables:      make([]TablePayload, 0, len(g.Tables)),
	}
	for _, t := range g.Tables {
		tp := TablePayload{ID: t.ID, Rows: make([]RowPayload, 0, len(t.Rows))}
		for _, r := range t.Rows {
			rp := RowPayload{Year: r.Year, Months: r.Months}
			if r.Totals != nil {
				rp.Quarters = r.Totals.Quarters
				rp.YTD = r.Totals.YTD
			}
			tp.Rows = append(tp.Rows, rp)
		}
		msg.Tables = append(msg.Tables, tp)
	}
	return msg
}

// Grid rebuilds the computed grid carried by the message.
func (m *GridSubmittedMessage) Grid() core.Grid {
	g := core.Grid{Tables: make([]core.Table, 0, len(m.Tables))}
	for _, tp := range m.Tables {
		t := core.Table{ID: tp.ID, Rows: make([]core.Row, 0, len(tp.Rows))}
		for i, rp := range tp.Rows {
			t.Rows = append(t.Rows, core.Row{
				Index:  i + 1,
				Year:   rp.Year,
				Months: rp.Months,
				Totals: &core.Aggregates{Quarters: rp.Quarters, YTD: rp.YTD},
			})
		}
		g.Tables = append(g.Tables, t)
	}
	return g
}

// ToJSON converts the message to JSON bytes
func (m *GridSubmittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GridSubmittedMessageFromJSON decodes a message body.
func GridSubmittedMessageFromJSON(data []byte) (*GridSubmittedMessage, error) {
	var msg GridSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
