// Package query turns a declarative pantry filter into a storage-neutral plan.
//
// A Plan names logical item fields only. Repositories translate those fields to their own
// columns (or evaluate the plan in memory with Plan.Matches).
package query

import (
	"strings"
	"time"

	"pantry/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20

	// ExpiringSoonDays is the fixed horizon of the expiringSoon list filter.
	ExpiringSoonDays = 7
)

// SortField is an externally visible sort key.
type SortField string

const (
	SortByName           SortField = "name"
	SortByExpirationDate SortField = "expirationDate"
	SortByDateAdded      SortField = "dateAdded"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByExpirationDate, SortByDateAdded:
		return true
	}
	return false
}

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// Spec is the filter specification of a list request. Zero values mean "not set".
type Spec struct {
	Category     *models.Category
	ExpiringSoon bool
	Expired      bool
	Search       string
	Page         int
	Limit        int
	SortBy       SortField
	SortOrder    SortOrder
}

// WithDefaults fills unset paging and sorting fields.
func (s Spec) WithDefaults() Spec {
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if s.Limit < 1 {
		s.Limit = DefaultLimit
	}
	if s.SortBy == "" {
		s.SortBy = SortByDateAdded
	}
	if s.SortOrder == "" {
		s.SortOrder = Desc
	}
	return s
}

// Offset is the zero-based index of the first row of the requested page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Window returns the inclusive row range [from, to] of the requested page.
func (s Spec) Window() (from, to int) {
	from = s.Offset()
	return from, from + s.Limit - 1
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Field is a logical pantry item field a plan can filter or sort on.
type Field string

const (
	FieldName           Field = "name"
	FieldBrand          Field = "brand"
	FieldCategory       Field = "category"
	FieldExpirationDate Field = "expirationDate"
	FieldDateAdded      Field = "dateAdded"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpLT  Op = "<"
	OpLTE Op = "<="
)

// Condition compares a field against a string value. Dates are compared as YYYY-MM-DD
// strings, which order the same way as the dates themselves.
type Condition struct {
	Field Field
	Op    Op
	Value string
}

// Plan is the storage-neutral form of a list query. All conditions are ANDed; Search
// matches name OR brand, case-insensitively.
type Plan struct {
	Conditions []Condition
	Search     string
	SortField  Field
	Descending bool
	Offset     int
	Limit      int
}

// Build composes spec into a plan. now supplies "today" for the date boundaries.
func Build(spec Spec, now time.Time) Plan {
	spec = spec.WithDefaults()
	today := models.DateOf(now)

	plan := Plan{
		Search:     strings.TrimSpace(spec.Search),
		SortField:  sortField(spec.SortBy),
		Descending: spec.SortOrder == Desc,
		Offset:     spec.Offset(),
		Limit:      spec.Limit,
	}
	if spec.Category != nil {
		plan.Conditions = append(plan.Conditions, Condition{FieldCategory, OpEq, string(*spec.Category)})
	}
	if spec.ExpiringSoon {
		plan.Conditions = append(plan.Conditions, Condition{FieldExpirationDate, OpLTE, today.AddDays(ExpiringSoonDays).String()})
	}
	if spec.Expired {
		plan.Conditions = append(plan.Conditions, Condition{FieldExpirationDate, OpLT, today.String()})
	}
	return plan
}

func sortField(f SortField) Field {
	switch f {
	case SortByName:
		return FieldName
	case SortByExpirationDate:
		return FieldExpirationDate
	default:
		return FieldDateAdded
	}
}

// Matches evaluates the plan's filters (not paging) against an item.
func (p Plan) Matches(item models.PantryItem) bool {
	for _, c := range p.Conditions {
		if !compare(fieldValue(item, c.Field), c.Op, c.Value) {
			return false
		}
	}
	if p.Search == "" {
		return true
	}
	term := strings.ToLower(p.Search)
	if strings.Contains(strings.ToLower(item.Name), term) {
		return true
	}
	return item.Brand != nil && strings.Contains(strings.ToLower(*item.Brand), term)
}

// Less orders a before b according to the plan's sort key and direction.
func (p Plan) Less(a, b models.PantryItem) bool {
	var less, equal bool
	switch p.SortField {
	case FieldName:
		less, equal = a.Name < b.Name, a.Name == b.Name
	case FieldExpirationDate:
		less, equal = a.ExpirationDate.Before(b.ExpirationDate), a.ExpirationDate.Equal(b.ExpirationDate)
	default:
		less, equal = a.DateAdded.Before(b.DateAdded), a.DateAdded.Equal(b.DateAdded)
	}
	if equal {
		return false
	}
	if p.Descending {
		return !less
	}
	return less
}

func fieldValue(item models.PantryItem, f Field) string {
	switch f {
	case FieldName:
		return item.Name
	case FieldBrand:
		if item.Brand == nil {
			return ""
		}
		return *item.Brand
	case FieldCategory:
		return string(item.Category)
	case FieldExpirationDate:
		return item.ExpirationDate.String()
	case FieldDateAdded:
		return item.DateAdded.UTC().Format(time.RFC3339Nano)
	}
	return ""
}

func compare(actual string, op Op, want string) bool {
	switch op {
	case OpEq:
		return actual == want
	case OpLT:
		return actual < want
	case OpLTE:
		return actual <= want
	}
	return false
}
