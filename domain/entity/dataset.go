package entity

import "fmt"

// Table names used by the synthesizers.
const (
	TableSigninLogs    = "SigninLogs"
	TableSecurityEvent = "SecurityEvent"
	TableAzureActivity = "AzureActivity"
	TableNetworkFlows  = "AzureNetworkAnalytics_CL"
	TableSecurityAlert = "SecurityAlert"
)

// Table is a named ordered sequence of records of one schema kind
type Table struct {
	Name    string    `json:"name" msgpack:"name"`
	Records []*Record `json:"records" msgpack:"records"`
}

// NewTable creates an empty table with capacity for n records
func NewTable(name string, n int) *Table {
	return &Table{Name: name, Records: make([]*Record, 0, n)}
}

// Append adds records to the end of the table
func (t *Table) Append(records ...*Record) {
	t.Records = append(t.Records, records...)
}

// Len returns the record count
func (t *Table) Len() int {
	return len(t.Records)
}

// Dataset is the full output for one exercise: tables in insertion order.
type Dataset struct {
	Exercise ExerciseID
	tables   []*Table
}

// NewDataset creates an empty dataset
func NewDataset(exercise ExerciseID) *Dataset {
	return &Dataset{Exercise: exercise}
}

// AddTable appends a table. Table names are unique within a dataset.
func (d *Dataset) AddTable(t *Table) error {
	if d.Table(t.Name) != nil {
		return fmt.Errorf("dataset %s already has table %s", d.Exercise, t.Name)
	}
	d.tables = append(d.tables, t)
	return nil
}

// Table returns the named table or nil
func (d *Dataset) Table(name string) *Table {
	for _, t := range d.tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Tables returns the tables in order
func (d *Dataset) Tables() []*Table {
	return d.tables
}

// TableNames returns the table names in order
func (d *Dataset) TableNames() []string {
	names := make([]string, len(d.tables))
	for i, t := range d.tables {
		names[i] = t.Name
	}
	return names
}

// RecordCount returns the number of records across all tables
func (d *Dataset) RecordCount() int {
	n := 0
	for _, t := range d.tables {
		n += t.Len()
	}
	return n
}

// TableCounts returns record counts keyed by table name
func (d *Dataset) TableCounts() map[string]int {
	counts := make(map[string]int, len(d.tables))
	for _, t := range d.tables {
		counts[t.Name] = t.Len()
	}
	return counts
}

// CountContaining returns how many records have a string field containing substr
func (d *Dataset) CountContaining(substr string) int {
	n := 0
	for _, t := range d.tables {
		for _, r := range t.Records {
			if r.ContainsText(substr) {
				n++
			}
		}
	}
	return n
}

// Equal reports whether both datasets hold the same tables and records in the same order
func (d *Dataset) Equal(other *Dataset) bool {
	if d.Exercise != other.Exercise || len(d.tables) != len(other.tables) {
		return false
	}
	for i, t := range d.tables {
		o := other.tables[i]
		if t.Name != o.Name || len(t.Records) != len(o.Records) {
			return false
		}
		for j, r := range t.Records {
			if !r.Equal(o.Records[j]) {
				return false
			}
		}
	}
	return true
}
