package models

import "time"

// ReconciledData is the output of the join phase
type ReconciledData struct {
	Records        []CombinedRecord
	TicketsSold    int
	ValidationRows int
	DroppedRows    int
}

// ProcessedData is the output contract consumed by the dashboard
type ProcessedData struct {
	RunID           string           `json:"runId"`
	CombinedData    []CombinedRecord `json:"combinedData"`
	KPIs            *KPISummary      `json:"kpis"`
	AvailableYears  []string         `json:"availableYears"`
	AvailableMonths []string         `json:"availableMonths"`
	TicketsSold     int              `json:"ticketsSold"`
	DroppedRows     int              `json:"droppedRows"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
	Backup          *BackupSnapshot  `json:"backupData,omitempty"`
	Err             error            `json:"-"`
	FinishedAt      time.Time        `json:"finishedAt"`
}

// Failed reports whether the run ended with an error
func (p *ProcessedData) Failed() bool {
	return p != nil && p.Err != nil
}

// HasRecords reports whether the run produced combined records
func (p *ProcessedData) HasRecords() bool {
	return p != nil && len(p.CombinedData) > 0
}
