package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadTeam(t *testing.T) {
	fs := afero.NewMemMapFs()
	roster := `
frontend: ["Tran Toan Thang"]
inactive: ["Former Dev"]
teams:
  backend: ["Thuong Le", "Hán Văn Nam"]
  mobile: ["Tú Trần Anh"]
`
	if err := afero.WriteFile(fs, "/data/team.yaml", []byte(roster), 0o644); err != nil {
		t.Fatal(err)
	}

	team, err := LoadTeam(fs, "/data/team.yaml")
	if err != nil {
		t.Fatalf("LoadTeam() error = %v", err)
	}

	if len(team.Frontend) != 1 || team.Frontend[0] != "Tran Toan Thang" {
		t.Errorf("Frontend = %v", team.Frontend)
	}
	if len(team.FullStack) != len(DefaultTeam().FullStack) {
		t.Errorf("lists missing from the file keep their defaults, got %v", team.FullStack)
	}
	if len(team.Inactive) != 1 {
		t.Errorf("Inactive = %v", team.Inactive)
	}
	if names := team.TeamNames(); len(names) != 2 || names[0] != "backend" {
		t.Errorf("TeamNames() = %v", names)
	}

	members, ok := team.Members("backend")
	if !ok || len(members) != 2 {
		t.Errorf("Members(backend) = %v, %v", members, ok)
	}
	if _, ok := team.Members("unknown"); ok {
		t.Error("unknown team should not be found")
	}
	if all, ok := team.Members("All Teams"); !ok || all != nil {
		t.Errorf("All Teams should mean no restriction, got %v, %v", all, ok)
	}
}

func TestLoadTeam_Missing(t *testing.T) {
	team, err := LoadTeam(afero.NewMemMapFs(), "/nowhere/team.yaml")
	if err != nil {
		t.Fatalf("missing roster should not fail: %v", err)
	}
	if len(team.Excluded) != 3 {
		t.Errorf("expected default roster, got %+v", team)
	}
}

func TestLoadTeam_Malformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "team.yaml", []byte("teams: [not, a, map"), 0o644)

	if _, err := LoadTeam(fs, "team.yaml"); err == nil {
		t.Error("expected a parse error")
	}
}
