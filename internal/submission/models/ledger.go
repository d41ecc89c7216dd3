package models

import "time"

// LedgerTitle marks a contained list as a generated-records ledger.
const LedgerTitle = "GeneratedResourcesList"

// LedgerEntry names one record produced by a submission event.
type LedgerEntry struct {
	Type ResourceType `json:"type"`
	ID   string       `json:"id"`
	Date time.Time    `json:"date,omitzero"`
}

func (e LedgerEntry) Reference() Reference {
	return NewReference(e.Type, e.ID)
}

// Ledger lists the records generated by one submission of a response.
type Ledger struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Status  string        `json:"status"`
	Mode    string        `json:"mode"`
	Date    time.Time     `json:"date,omitzero"`
	Entries []LedgerEntry `json:"entries,omitempty"`
}

// References returns the entries as references, in ledger order.
func (l Ledger) References() []Reference {
	out := make([]Reference, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, e.Reference())
	}
	return out
}

func (l Ledger) Len() int {
	return len(l.Entries)
}
