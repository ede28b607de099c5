package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidProfile = errors.New("invalid import profile")

// Columns names the CSV header of each field. Date, Description and Amount
// are required.
type Columns struct {
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Ref1        string `yaml:"ref1"`
	Ref2        string `yaml:"ref2"`
	Ref3        string `yaml:"ref3"`
	Ref4        string `yaml:"ref4"`
}

// Profile describes the CSV export of one bank account.
type Profile struct {
	Name        string `yaml:"name"`
	BankAccount string `yaml:"bank_account"`
	// SuspenseAccount books rows no pattern could place.
	SuspenseAccount string  `yaml:"suspense_account"`
	Delimiter       string  `yaml:"delimiter"`
	DateLayout      string  `yaml:"date_layout"`
	DecimalComma    bool    `yaml:"decimal_comma"`
	Columns         Columns `yaml:"columns"`
	// SignColumn and OutgoingMarker handle banks that export unsigned
	// amounts with a separate debit/credit column.
	SignColumn     string `yaml:"sign_column"`
	OutgoingMarker string `yaml:"outgoing_marker"`
}

// Validate fills defaults and checks required fields.
func (p *Profile) Validate() error {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.BankAccount == "" {
		missing = append(missing, "bank_account")
	}
	if p.SuspenseAccount == "" {
		missing = append(missing, "suspense_account")
	}
	if p.Columns.Date == "" {
		missing = append(missing, "columns.date")
	}
	if p.Columns.Description == "" {
		missing = append(missing, "columns.description")
	}
	if p.Columns.Amount == "" {
		missing = append(missing, "columns.amount")
	}
	if p.SignColumn != "" && p.OutgoingMarker == "" {
		missing = append(missing, "outgoing_marker")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", ErrInvalidProfile, p.Name, strings.Join(missing, ", "))
	}

	if p.Delimiter == "" {
		p.Delimiter = ","
	}
	if len([]rune(p.Delimiter)) != 1 {
		return fmt.Errorf("%w %q: delimiter must be one character", ErrInvalidProfile, p.Name)
	}
	if p.DateLayout == "" {
		p.DateLayout = DateLayout
	}
	return nil
}

// LoadProfile reads and validates a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfiles reads every *.yaml and *.yml file in dir, keyed by name.
func LoadProfiles(dir string) (map[string]*Profile, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	sort.Strings(paths)

	profiles := make(map[string]*Profile, len(paths))
	for _, path := range paths {
		p, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		if _, dup := profiles[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile name %q", ErrInvalidProfile, p.Name)
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}
