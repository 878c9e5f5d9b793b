package resources

import (
	"strings"
	"time"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/pkg/errors"
)

type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedMaintenance BedStatus = "maintenance"
)

type Bed struct {
	ID          string    `json:"id,omitempty"`
	Number      string    `json:"number"`
	Ward        string    `json:"ward"`
	RoomID      string    `json:"roomId,omitempty"`
	Status      BedStatus `json:"status"`
	PatientName string    `json:"patientName,omitempty"`
}

func (b Bed) Validate() error {
	if blank(b.Number) {
		return invalid("bed number is required")
	}
	if blank(b.Ward) {
		return invalid("ward is required")
	}
	switch b.Status {
	case BedAvailable, BedMaintenance:
		if !blank(b.PatientName) {
			return invalid("only an occupied bed can have a patient")
		}
	case BedOccupied:
		if blank(b.PatientName) {
			return invalid("an occupied bed needs a patient")
		}
	default:
		return invalid("unknown bed status %q", b.Status)
	}
	return nil
}

type RoomType string

const (
	RoomGeneral   RoomType = "general"
	RoomPrivate   RoomType = "private"
	RoomICU       RoomType = "icu"
	RoomOperating RoomType = "operating"
)

type Room struct {
	ID       string   `json:"id,omitempty"`
	Number   string   `json:"number"`
	Type     RoomType `json:"type"`
	Floor    int      `json:"floor"`
	Capacity int      `json:"capacity"`
}

func (r Room) Validate() error {
	if blank(r.Number) {
		return invalid("room number is required")
	}
	switch r.Type {
	case RoomGeneral, RoomPrivate, RoomICU, RoomOperating:
	default:
		return invalid("unknown room type %q", r.Type)
	}
	if r.Floor < 0 {
		return invalid("floor cannot be negative")
	}
	if r.Capacity < 1 {
		return invalid("capacity must be at least 1")
	}
	return nil
}

var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {}, "AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

type BloodDonation struct {
	ID         string    `json:"id,omitempty"`
	DonorName  string    `json:"donorName"`
	BloodGroup string    `json:"bloodGroup"`
	Units      int       `json:"units"`
	DonatedAt  time.Time `json:"donatedAt"`
}

// Normalize upper-cases the blood group
func (d *BloodDonation) Normalize() {
	d.BloodGroup = strings.ToUpper(strings.TrimSpace(d.BloodGroup))
}

func (d BloodDonation) Validate() error {
	if blank(d.DonorName) {
		return invalid("donor name is required")
	}
	if _, ok := bloodGroups[d.BloodGroup]; !ok {
		return invalid("unknown blood group %q", d.BloodGroup)
	}
	if d.Units < 1 {
		return invalid("units must be at least 1")
	}
	if d.DonatedAt.IsZero() {
		return invalid("donation date is required")
	}
	return nil
}

const clockLayout = "15:04"

type DoctorSchedule struct {
	ID         string `json:"id,omitempty"`
	DoctorName string `json:"doctorName"`
	Department string `json:"department"`
	Day        string `json:"day"`       // e.g. Monday
	StartTime  string `json:"startTime"` // HH:MM
	EndTime    string `json:"endTime"`   // HH:MM
}

func (s DoctorSchedule) Validate() error {
	if blank(s.DoctorName) {
		return invalid("doctor name is required")
	}
	if blank(s.Department) {
		return invalid("department is required")
	}
	if !isWeekday(s.Day) {
		return invalid("unknown day %q", s.Day)
	}
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return invalid("start time must be HH:MM")
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return invalid("end time must be HH:MM")
	}
	if !end.After(start) {
		return invalid("end time must be after start time")
	}
	return nil
}

func isWeekday(day string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(day)) {
			return true
		}
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportCompleted ReportStatus = "completed"
)

type PathologyReport struct {
	ID          string       `json:"id,omitempty"`
	PatientName string       `json:"patientName"`
	TestName    string       `json:"testName"`
	Result      string       `json:"result,omitempty"`
	Status      ReportStatus `json:"status"`
	ReportedAt  *time.Time   `json:"reportedAt,omitempty"`
}

func (p PathologyReport) Validate() error {
	if blank(p.PatientName) {
		return invalid("patient name is required")
	}
	if blank(p.TestName) {
		return invalid("test name is required")
	}
	switch p.Status {
	case ReportPending:
	case ReportCompleted:
		if blank(p.Result) {
			return invalid("a completed report needs a result")
		}
	default:
		return invalid("unknown report status %q", p.Status)
	}
	return nil
}

type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoiceIssued InvoiceStatus = "issued"
	InvoicePaid   InvoiceStatus = "paid"
)

// LineItem amounts are in minor currency units
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

func (l LineItem) Amount() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

type Invoice struct {
	ID          string        `json:"id,omitempty"`
	PatientName string        `json:"patientName"`
	Items       []LineItem    `json:"items"`
	Total       int64         `json:"total"`
	Status      InvoiceStatus `json:"status"`
	IssuedAt    *time.Time    `json:"issuedAt,omitempty"`
}

// ComputeTotal sums the line items
func (i Invoice) ComputeTotal() int64 {
	var total int64
	for _, l := range i.Items {
		total += l.Amount()
	}
	return total
}

// Normalize replaces Total with the sum of the line items
func (i *Invoice) Normalize() {
	i.Total = i.ComputeTotal()
}

func (i Invoice) Validate() error {
	if blank(i.PatientName) {
		return invalid("patient name is required")
	}
	if len(i.Items) == 0 {
		return invalid("an invoice needs at least one line item")
	}
	for n, l := range i.Items {
		if blank(l.Description) {
			return invalid("line %d: description is required", n+1)
		}
		if l.Quantity < 1 {
			return invalid("line %d: quantity must be at least 1", n+1)
		}
		if l.UnitPrice < 0 {
			return invalid("line %d: unit price cannot be negative", n+1)
		}
	}
	if i.Total != i.ComputeTotal() {
		return invalid("total does not match line items")
	}
	switch i.Status {
	case InvoiceDraft:
	case InvoiceIssued, InvoicePaid:
		if i.IssuedAt == nil {
			return invalid("an issued invoice needs an issue date")
		}
	default:
		return invalid("unknown invoice status %q", i.Status)
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(hmserrors.ErrValidation, format, args...)
}
