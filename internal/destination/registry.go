package destination

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Destination routes a new ticket to a country-scoped physical table
// and fixes its id prefix. One destination is selected per creation
// request.
type Destination struct {
	Name           string
	ISOPrefix      string
	PhysicalTable  string
	DefaultTeamID  int64
	DefaultStageID int64
}

// Registry is the static destination configuration, validated once at
// startup.
type Registry struct {
	byName map[string]Destination
}

// Defaults returns the built-in destination table inherited from the
// ERP deployment.
func Defaults() *Registry {
	return NewRegistry([]Destination{
		{Name: "Thailand", ISOPrefix: "TH", PhysicalTable: "helpdesk_ticket_th", DefaultTeamID: 1, DefaultStageID: 1},
		{Name: "Vietnam", ISOPrefix: "VN", PhysicalTable: "helpdesk_ticket_vn", DefaultTeamID: 2, DefaultStageID: 1},
		{Name: "Singapore", ISOPrefix: "SG", PhysicalTable: "helpdesk_ticket_sg", DefaultTeamID: 3, DefaultStageID: 1},
		{Name: "Malaysia", ISOPrefix: "MY", PhysicalTable: "helpdesk_ticket_my", DefaultTeamID: 4, DefaultStageID: 1},
	})
}

// NewRegistry builds a registry from a destination list.
func NewRegistry(destinations []Destination) *Registry {
	byName := make(map[string]Destination, len(destinations))
	for _, dest := range destinations {
		byName[strings.ToLower(dest.Name)] = dest
	}
	return &Registry{byName: byName}
}

// Validate checks every destination entry. Prefix must be exactly two
// characters and every routing field must be present.
func (r *Registry) Validate() error {
	if len(r.byName) == 0 {
		return apperrors.NewValidationError("destination registry is empty", nil)
	}
	for _, dest := range r.byName {
		if dest.Name == "" {
			return apperrors.NewValidationError("destination name must not be empty", nil)
		}
		if len(dest.ISOPrefix) != 2 {
			return apperrors.NewValidationError(
				fmt.Sprintf("destination %s: iso prefix must be exactly 2 characters", dest.Name),
				map[string]any{"prefix": dest.ISOPrefix})
		}
		if dest.PhysicalTable == "" {
			return apperrors.NewValidationError(
				fmt.Sprintf("destination %s: physical table must be set", dest.Name), nil)
		}
		if dest.DefaultTeamID == 0 || dest.DefaultStageID == 0 {
			return apperrors.NewValidationError(
				fmt.Sprintf("destination %s: team and stage defaults must be set", dest.Name), nil)
		}
	}
	return nil
}

// Get resolves a destination by name, case-insensitively.
func (r *Registry) Get(name string) (Destination, error) {
	dest, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Destination{}, apperrors.NewValidationError("unknown destination", map[string]any{"destination": name})
	}
	return dest, nil
}

// ByPrefix resolves the destination owning a ticket number. The first
// two characters of every number are the destination's iso prefix.
func (r *Registry) ByPrefix(ticketNumber string) (Destination, error) {
	if len(ticketNumber) < 2 {
		return Destination{}, apperrors.NewValidationError("ticket number too short", map[string]any{"number": ticketNumber})
	}
	prefix := strings.ToUpper(ticketNumber[:2])
	for _, dest := range r.byName {
		if dest.ISOPrefix == prefix {
			return dest, nil
		}
	}
	return Destination{}, apperrors.NewValidationError("no destination for ticket prefix", map[string]any{"prefix": prefix})
}

// All returns destinations sorted by name.
func (r *Registry) All() []Destination {
	result := make([]Destination, 0, len(r.byName))
	for _, dest := range r.byName {
		result = append(result, dest)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Tables returns the legacy physical table names, used by schema
// detection.
func (r *Registry) Tables() []string {
	tables := make([]string, 0, len(r.byName))
	for _, dest := range r.byName {
		tables = append(tables, dest.PhysicalTable)
	}
	sort.Strings(tables)
	return tables
}
