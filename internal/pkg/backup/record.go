package backup

import "time"

// Record is one account as it travels through the backup formats. Store
// assigned fields (ID, Created, Order) are carried but ignored on restore.
type Record struct {
	ID        string `json:"id,omitempty"`
	Issuer    string `json:"issuer"`
	Label     string `json:"label"`
	Secret    string `json:"secret"`
	Algorithm string `json:"algorithm,omitempty"`
	Digits    int    `json:"digits,omitempty"`
	Period    int    `json:"period,omitempty"`
	Type      string `json:"type,omitempty"`
	Folder    string `json:"folder,omitempty"`
	Created   int64  `json:"created,omitempty"`
	Order     int    `json:"order,omitempty"`
}

// FileName is the suggested name of an encrypted export made at t.
func FileName(t time.Time) string {
	return "sigil-backup-" + t.UTC().Format(time.DateOnly) + ".json"
}
