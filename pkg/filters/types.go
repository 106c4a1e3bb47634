package filters

import "slices"

// Property names used by the Gmail filter export.
const (
	PropFrom            = "from"
	PropSubject         = "subject"
	PropLabel           = "label"
	PropShouldNeverSpam = "shouldNeverSpam"
	PropShouldArchive   = "shouldArchive"
)

// False is written for flag properties an entry does not carry.
const False = "false"

// Header is the first record of every export.
var Header = []string{"ID", "Updated", "From", "Subject", "Label", "Should Never Spam", "Should Archive"}

// Field is a value that may be absent from an entry.
type Field struct {
	Value string
	Valid bool
}

// Some returns a present field.
func Some(value string) Field {
	return Field{Value: value, Valid: true}
}

// Or returns the value, or null when the field is absent.
func (f Field) Or(null string) string {
	if !f.Valid {
		return null
	}
	return f.Value
}

// Row holds the exported columns of one filter.
type Row struct {
	ID              Field
	Updated         Field
	From            Field
	Subject         Field
	Label           Field
	ShouldNeverSpam string
	ShouldArchive   string
}

// Record returns the row's fields in Header order.
func (r Row) Record(null string) []string {
	return []string{
		r.ID.Or(null),
		r.Updated.Or(null),
		r.From.Or(null),
		r.Subject.Or(null),
		r.Label.Or(null),
		r.ShouldNeverSpam,
		r.ShouldArchive,
	}
}

// Records prepends Header to the rows' records.
func Records(rows []Row, null string) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, slices.Clone(Header))
	for _, row := range rows {
		records = append(records, row.Record(null))
	}
	return records
}

// Stats summarises an extraction.
type Stats struct {
	Entries int
	// Unmapped counts property names that have no column, e.g. hasTheWord.
	Unmapped map[string]int
}
