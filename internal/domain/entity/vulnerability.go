package entity

// Vulnerability represents a vulnerability record keyed by its external
// identifier (e.g. "CVE-2024-12345"). A record is created at most once per
// identifier; later articles referencing the same identifier attach to the
// existing record.
type Vulnerability struct {
	ID         int64
	ExternalID string
	CVSSScore  float64
	Severity   string
}
