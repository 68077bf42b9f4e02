package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/snapshot"
)

const jiraLayout = "2006-01-02T15:04:05.000-0700"

type GeneratorConfig struct {
	Scenario string // "mild", "chaos" or "late"
	SprintID int
	Count    int
	Days     int // sprint length in calendar days
	Seed     int64
	Now      time.Time
}

// people of the synthetic team; the first three match the default roster.
var people = []string{"Thuong Le", "Hán Văn Nam", "Tran Toan Thang", "Linh Pham", "Duc Nguyen"}

var flow = []string{"To Do", "In Progress", "Dev Done", "Test Done", "Done"}

// Generate builds a sprint that started Days/2 days before Now and raw issues
// with changelogs and worklogs inside it.
func Generate(cfg GeneratorConfig) (jira.SprintDTO, []jira.IssueDTO) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Days <= 0 {
		cfg.Days = 12
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	start := cfg.Now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -cfg.Days/2).Add(2 * time.Hour)
	end := start.AddDate(0, 0, cfg.Days-1).Add(8 * time.Hour)
	elapsed := cfg.Now.Sub(start)
	sprint := jira.SprintDTO{
		ID:            cfg.SprintID,
		Name:          fmt.Sprintf("MOCK Sprint %d", cfg.SprintID),
		State:         "active",
		StartDate:     start.Format(jiraLayout),
		EndDate:       end.Format(jiraLayout),
		OriginBoardID: 1,
	}

	issues := make([]jira.IssueDTO, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("MOCK-%d", i+1)
		assignee := people[rng.Intn(len(people))]
		estimateHours := float64(2 + rng.Intn(15))

		// 1. How far the issue gets through the flow
		stage := progress(rng, cfg.Scenario)
		stepHours := 24 * math.Max(1, float64(cfg.Days)/float64(len(flow)))
		if cfg.Scenario == "late" {
			stepHours = 6
		}

		// 2. Transitions, spread over the elapsed part of the sprint
		var histories []jira.HistoryDTO
		t := start.Add(time.Duration(rng.Intn(24)) * time.Hour)
		if cfg.Scenario == "late" {
			t = cfg.Now.Add(-time.Duration(len(flow)) * 6 * time.Hour)
		}
		for s := 1; s <= stage; s++ {
			t = t.Add(time.Duration(stepHours*(0.5+rng.Float64())) * time.Hour)
			if t.After(cfg.Now) {
				stage = s - 1
				break
			}
			histories = append(histories, jira.HistoryDTO{
				ID:      fmt.Sprintf("%d%02d", i+1, s),
				Created: t.Format(jiraLayout),
				Items:   []jira.ItemDTO{{Field: "status", FromString: flow[s-1], ToString: flow[s]}},
			})
		}

		// 3. Worklogs while the issue was moving
		var worklogs []jira.WorklogDTO
		spent := 0.0
		if stage > 0 && elapsed > 0 {
			logs := 1 + rng.Intn(4)
			for w := 0; w < logs; w++ {
				hours := math.Round(estimateHours/float64(logs)*(0.6+rng.Float64()*0.8)*2) / 2
				started := start.Add(time.Duration(rng.Int63n(int64(elapsed))))
				worklogs = append(worklogs, jira.WorklogDTO{
					ID:               fmt.Sprintf("%d%02d", i+1, w),
					Author:           jira.UserDTO{DisplayName: assignee},
					Started:          started.Format(jiraLayout),
					TimeSpentSeconds: int64(hours * 3600),
				})
				spent += hours * 3600
			}
		}

		estimate := estimateHours * 3600
		remaining := math.Max(0, estimate-spent)
		dashboard := "Yes"
		if rng.Float64() < 0.15 {
			dashboard = "No"
		}
		custom := map[string]any{
			issue.DefaultFields().ShowInDashboard: map[string]any{"value": dashboard},
		}
		if cfg.Scenario == "chaos" && rng.Float64() < 0.3 {
			custom[issue.DefaultFields().Popup] = map[string]any{"value": "Yes"}
		}

		issues = append(issues, jira.IssueDTO{
			ID:  fmt.Sprint(10000 + i),
			Key: key,
			Fields: jira.FieldsDTO{
				Summary:              fmt.Sprintf("Synthetic task %d", i+1),
				IssueType:            jira.IssueType{Name: "Task"},
				Status:               &jira.NamedDTO{Name: flow[stage]},
				Priority:             &jira.NamedDTO{Name: "Medium"},
				Assignee:             &jira.UserDTO{DisplayName: assignee},
				Created:              start.Add(-48 * time.Hour).Format(jiraLayout),
				Updated:              t.Format(jiraLayout),
				TimeOriginalEstimate: &estimate,
				TimeEstimate:         &remaining,
				TimeSpent:            &spent,
				Worklog:              &jira.WorklogPage{Total: len(worklogs), MaxResults: 20, Worklogs: worklogs},
				Custom:               custom,
			},
			Changelog: &jira.ChangelogDTO{Total: len(histories), MaxResults: 100, Histories: histories},
		})
	}
	return sprint, issues
}

// progress picks how many flow steps an issue completes.
func progress(rng *rand.Rand, scenario string) int {
	last := len(flow) - 1
	switch scenario {
	case "chaos":
		if rng.Float64() < 0.5 {
			return rng.Intn(2)
		}
		return rng.Intn(last + 1)
	case "late":
		return last
	default:
		return max(0, min(last, int(math.Round(rng.NormFloat64()*0.8+2.5))))
	}
}

// Save processes the issues against the sprint window and stores the snapshot.
func Save(ctx context.Context, store snapshot.Store, sprint jira.SprintDTO, raw []jira.IssueDTO) error {
	p := issue.NewProcessor(issue.Options{BaseURL: "https://jira.example"})
	w := report.SprintWindow(&sprint)

	issues := make([]jira.Issue, 0, len(raw))
	for _, r := range raw {
		issues = append(issues, p.Process(r, nil, w))
	}
	return store.SaveSprintSnapshot(ctx, sprint.ID, sprint.Name, issues, &sprint)
}
