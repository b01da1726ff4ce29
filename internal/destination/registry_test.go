package destination

import (
	"testing"

	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("built-in destinations must validate: %v", err)
	}
}

func TestValidateRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		dest Destination
	}{
		{"long prefix", Destination{Name: "Thailand", ISOPrefix: "THA", PhysicalTable: "t", DefaultTeamID: 1, DefaultStageID: 1}},
		{"short prefix", Destination{Name: "Thailand", ISOPrefix: "T", PhysicalTable: "t", DefaultTeamID: 1, DefaultStageID: 1}},
		{"missing table", Destination{Name: "Thailand", ISOPrefix: "TH", DefaultTeamID: 1, DefaultStageID: 1}},
		{"missing team", Destination{Name: "Thailand", ISOPrefix: "TH", PhysicalTable: "t", DefaultStageID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewRegistry([]Destination{tc.dest}).Validate()
			if !apperrors.IsCode(err, "VALIDATION_FAILED") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if err := NewRegistry(nil).Validate(); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatal("empty registry must fail validation")
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	registry := Defaults()
	for _, name := range []string{"Thailand", "thailand", "THAILAND", " Thailand "} {
		dest, err := registry.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if dest.ISOPrefix != "TH" {
			t.Errorf("Get(%q) resolved prefix %s", name, dest.ISOPrefix)
		}
	}

	if _, err := registry.Get("Atlantis"); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("unknown destination must be a validation error, got %v", err)
	}
}

func TestByPrefix(t *testing.T) {
	registry := Defaults()

	dest, err := registry.ByPrefix("VN210825042")
	if err != nil {
		t.Fatal(err)
	}
	if dest.Name != "Vietnam" {
		t.Errorf("resolved %s, want Vietnam", dest.Name)
	}

	if _, err := registry.ByPrefix("X"); err == nil {
		t.Error("too-short number must be rejected")
	}
	if _, err := registry.ByPrefix("ZZ210825042"); err == nil {
		t.Error("unknown prefix must be rejected")
	}
}

func TestAllSortedAndTables(t *testing.T) {
	registry := Defaults()

	all := registry.All()
	if len(all) != 4 {
		t.Fatalf("expected 4 destinations, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Fatal("All must return destinations sorted by name")
		}
	}

	tables := registry.Tables()
	if len(tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(tables))
	}
	for i := 1; i < len(tables); i++ {
		if tables[i-1] > tables[i] {
			t.Fatal("Tables must return names sorted")
		}
	}
}
