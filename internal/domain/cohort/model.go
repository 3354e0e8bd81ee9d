package cohort

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Cohort type constants.
const (
	TypeBasic     = "basic"
	TypePlacement = "placement"
	TypeMERN      = "mern"
	TypeFullstack = "fullstack"
)

// Types contains the cohort types offered by the program.
var Types = []string{TypeBasic, TypePlacement, TypeMERN, TypeFullstack}

// scheduleSuffix ends every cohort schedule table name.
const scheduleSuffix = "_schedule"

// templateSuffix ends every curriculum template key ("basicgen_schedule").
const templateSuffix = "gen_schedule"

// Domain errors
var (
	ErrEmptyType     = errors.New("cohort type is required")
	ErrInvalidType   = errors.New("cohort type must contain letters only")
	ErrEmptyNumber   = errors.New("cohort number is required")
	ErrInvalidNumber = errors.New("cohort number must look like 1.0 or 2")
	ErrInvalidTable  = errors.New("not a cohort schedule table name")
	ErrTemplateTable = errors.New("template tables are not cohort schedules")
)

var (
	typePattern       = regexp.MustCompile(`^[a-zA-Z]+$`)
	numberPattern     = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	tableNamePattern  = regexp.MustCompile(`^([a-z]+)([0-9]+)_([0-9]+)_schedule$`)
	singleNumberTable = regexp.MustCompile(`^([a-z]+)([0-9]+)_schedule$`)
)

// Cohort identifies one running instance of a curriculum track, e.g. Basic 1.1.
type Cohort struct {
	Type   string // basic, placement, ...
	Number string // 1.1
}

// Validate checks that the Cohort can be turned into a safe table name.
// PRE: Cohort struct is populated
// POST: Returns nil if valid, error otherwise
func (c Cohort) Validate() error {
	if err := ValidateType(c.Type); err != nil {
		return err
	}
	if strings.TrimSpace(c.Number) == "" {
		return ErrEmptyNumber
	}
	if !numberPattern.MatchString(c.Number) {
		return ErrInvalidNumber
	}
	return nil
}

// ValidateType checks a cohort type on its own, for template lookups.
func ValidateType(cohortType string) error {
	if strings.TrimSpace(cohortType) == "" {
		return ErrEmptyType
	}
	if !typePattern.MatchString(cohortType) {
		return ErrInvalidType
	}
	return nil
}

// TableName returns the schedule table name: {type lowercase}{number, '.' → '_'}_schedule.
// PRE: Validate() returned nil
// POST: Returns e.g. "basic1_1_schedule"
func (c Cohort) TableName() string {
	return strings.ToLower(c.Type) + strings.ReplaceAll(c.Number, ".", "_") + scheduleSuffix
}

// TemplateKey returns the curriculum template key for the cohort's type.
func (c Cohort) TemplateKey() string {
	return TemplateKey(c.Type)
}

// DisplayName renders the cohort as "Basic 1.1".
func (c Cohort) DisplayName() string {
	if c.Type == "" {
		return c.Number
	}
	return strings.ToUpper(c.Type[:1]) + strings.ToLower(c.Type[1:]) + " " + c.Number
}

// TemplateKey returns the template key for a cohort type ("basicgen_schedule").
func TemplateKey(cohortType string) string {
	return strings.ToLower(cohortType) + templateSuffix
}

// ParseTableName recovers the cohort from a schedule table name.
// "basic1_1_schedule" → {basic, 1.1}; "mern3_schedule" → {mern, 3}.
// PRE: none
// POST: Returns ErrInvalidTable for names that do not follow the convention
func ParseTableName(name string) (Cohort, error) {
	if strings.HasSuffix(name, templateSuffix) {
		return Cohort{}, fmt.Errorf("%w: %q", ErrTemplateTable, name)
	}
	if m := tableNamePattern.FindStringSubmatch(name); m != nil {
		return Cohort{Type: m[1], Number: m[2] + "." + m[3]}, nil
	}
	if m := singleNumberTable.FindStringSubmatch(name); m != nil {
		return Cohort{Type: m[1], Number: m[2]}, nil
	}
	return Cohort{}, fmt.Errorf("%w: %q", ErrInvalidTable, name)
}

// TemplateType recovers the cohort type from a template key ("basicgen_schedule" → "basic").
func TemplateType(key string) (string, bool) {
	t, ok := strings.CutSuffix(key, templateSuffix)
	if !ok || ValidateType(t) != nil {
		return "", false
	}
	return t, true
}

// IsScheduleTable reports whether name is a cohort schedule table name.
func IsScheduleTable(name string) bool {
	_, err := ParseTableName(name)
	return err == nil
}
