// Package exportutil serializes member rosters for export and parses roster
// uploads. Records travel on natural keys (email, church domain, role name)
// so files survive a database rebuild and can move between deployments.
package exportutil

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jcsgo/shepherd/internal/app/system/normalize"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Upload limits for roster imports.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// MemberRecord is one roster row in export/import files.
type MemberRecord struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ChurchDomain string `json:"church_domain"`
	Role         string `json:"role"`
	NewFriend    bool   `json:"is_new_friend"`
	TimerStatus  int    `json:"timer_status"`
	Phone        string `json:"phone,omitempty"`
	DateJoined   string `json:"date_joined,omitempty"` // RFC 3339 date
}

var csvHeader = []string{
	"Email", "First Name", "Last Name", "Church", "Role",
	"New Friend", "Timer Status", "Phone", "Date Joined",
}

// FromUser flattens a user into a roster record.
func FromUser(u *models.User, churchDomain string) MemberRecord {
	rec := MemberRecord{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ChurchDomain: churchDomain,
		Role:         u.Role,
		NewFriend:    u.NewFriend,
		TimerStatus:  u.TimerStatus,
		Phone:        u.PhoneNumber,
	}
	if !u.DateJoined.IsZero() {
		rec.DateJoined = u.DateJoined.UTC().Format("2006-01-02")
	}
	return rec
}

func (r MemberRecord) row() []string {
	return []string{
		r.Email, r.FirstName, r.LastName, r.ChurchDomain, r.Role,
		strconv.FormatBool(r.NewFriend), strconv.Itoa(r.TimerStatus),
		r.Phone, r.DateJoined,
	}
}

// WriteCSV writes the roster as CSV with a header row.
func WriteCSV(w io.Writer, records []MemberRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the roster as a JSON array.
func WriteJSON(w io.Writer, records []MemberRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteXLSX writes the roster as a single-sheet spreadsheet.
func WriteXLSX(w io.Writer, records []MemberRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Members"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, rec := range records {
		for col, v := range rec.row() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// RowError describes one rejected import row.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseResult holds the outcome of a roster upload scan.
type ParseResult struct {
	Records []MemberRecord
	Errors  []RowError
}

// HasErrors reports whether any rows were rejected.
func (r *ParseResult) HasErrors() bool { return len(r.Errors) > 0 }

// ParseCSV reads a roster upload, skipping a header row if present and
// validating every row before anything is written to the database.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ParseResult{}
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line > MaxRows {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "too many rows"})
			break
		}
		if len(rec) == 0 {
			continue
		}
		// BOM on the first cell, header row.
		rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "email") {
			continue
		}

		get := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		row := MemberRecord{
			Email:        normalize.Email(get(0)),
			FirstName:    get(1),
			LastName:     get(2),
			ChurchDomain: normalize.Domain(get(3)),
			Role:         strings.ToUpper(get(4)),
		}
		if row.Email == "" && row.FirstName == "" && row.LastName == "" {
			continue
		}
		if row.Email == "" || !strings.Contains(row.Email, "@") {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing or invalid email"})
			continue
		}
		if row.FirstName == "" && row.LastName == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing name"})
			continue
		}
		if row.ChurchDomain == "" {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "missing church domain"})
			continue
		}
		if row.Role != "" && !roles.IsValid(row.Role) {
			result.Errors = append(result.Errors, RowError{Line: line, Reason: "unknown role " + row.Role})
			continue
		}

		if nf := get(5); nf != "" {
			v, err := strconv.ParseBool(nf)
			if err != nil {
				result.Errors = append(result.Errors, RowError{Line: line, Reason: "invalid new friend flag"})
				continue
			}
			row.NewFriend = v
		}
		if ts := get(6); ts != "" {
			v, err := strconv.Atoi(ts)
			if err != nil || v < 1 || v > 5 {
				result.Errors = append(result.Errors, RowError{Line: line, Reason: "timer status must be 1-5"})
				continue
			}
			row.TimerStatus = v
		}
		row.Phone = get(7)
		if dj := get(8); dj != "" {
			if _, err := time.Parse("2006-01-02", dj); err != nil {
				result.Errors = append(result.Errors, RowError{Line: line, Reason: "date joined must be YYYY-MM-DD"})
				continue
			}
			row.DateJoined = dj
		}

		result.Records = append(result.Records, row)
	}
	return result, nil
}
