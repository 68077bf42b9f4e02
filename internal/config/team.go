package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Team is the roster used to classify and filter people in reports.
type Team struct {
	FullStack []string            `yaml:"fullstack"`
	Frontend  []string            `yaml:"frontend"`
	Excluded  []string            `yaml:"excluded"`
	Inactive  []string            `yaml:"inactive"`
	Teams     map[string][]string `yaml:"teams"`
}

// DefaultTeam is used when no roster file exists.
func DefaultTeam() *Team {
	return &Team{
		FullStack: []string{
			"Vũ Thanh Trung Anh",
			"Thuong Le",
			"Trường Nguyễn Bá",
			"Hán Văn Nam",
			"Thảo Phạm Văn",
			"Hùng Võ Văn",
			"Hoang Tran Van",
		},
		Frontend: []string{"Tran Toan Thang", "Nguyễn Nhật Minh", "Tú Trần Anh"},
		Excluded: []string{"Hoang Tran Van", "Unassigned", "Luyen Nguyen Thi"},
		Teams:    map[string][]string{},
	}
}

// LoadTeam reads the roster at path. A missing file yields DefaultTeam;
// lists left out of the file keep their defaults.
func LoadTeam(fsys afero.Fs, path string) (*Team, error) {
	team := DefaultTeam()
	if path == "" {
		return team, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("No team roster found, using defaults")
		return team, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read team roster: %w", err)
	}

	var fromFile Team
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse team roster %s: %w", path, err)
	}

	if fromFile.FullStack != nil {
		team.FullStack = fromFile.FullStack
	}
	if fromFile.Frontend != nil {
		team.Frontend = fromFile.Frontend
	}
	if fromFile.Excluded != nil {
		team.Excluded = fromFile.Excluded
	}
	if fromFile.Inactive != nil {
		team.Inactive = fromFile.Inactive
	}
	if fromFile.Teams != nil {
		team.Teams = fromFile.Teams
	}

	log.Debug().Str("path", path).Int("teams", len(team.Teams)).Msg("Loaded team roster")
	return team, nil
}

// Members returns the people of a named team. An empty name or "All Teams"
// means everyone and returns nil, true.
func (t *Team) Members(name string) ([]string, bool) {
	if name == "" || name == "All Teams" {
		return nil, true
	}
	members, ok := t.Teams[name]
	return members, ok
}

// TeamNames lists the configured team names in sorted order.
func (t *Team) TeamNames() []string {
	names := make([]string, 0, len(t.Teams))
	for n := range t.Teams {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
