package mcp

import (
	"context"
	"fmt"
	"strings"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/stats"
	"sprint-mcp/internal/visuals"
)

func (s *Server) members(team string) ([]string, error) {
	members, ok := s.team.Members(team)
	if !ok {
		return nil, fmt.Errorf("unknown team %q (known: %s)", team, strings.Join(s.team.TeamNames(), ", "))
	}
	return members, nil
}

func (s *Server) handleWorklogReport(ctx context.Context, args WorklogReportArgs) (any, error) {
	members, err := s.members(args.Team)
	if err != nil {
		return nil, err
	}

	rep, err := s.assembler.WorklogReport(ctx, report.WorklogQuery{
		Project: args.Project,
		From:    args.From,
		To:      args.To,
		Filter: stats.ReportFilter{
			Members:      members,
			Hidden:       s.team.Inactive,
			HideInactive: args.HideInactive,
		},
		Refresh: args.Refresh,
	})
	if err != nil {
		return nil, err
	}

	ranked := rep.RankUsers()
	res := map[string]any{
		"range":         rep.Range,
		"total_hours":   stats.Round2(rep.TotalHours),
		"users":         ranked,
		"daily_summary": rep.DailySummary,
		"by_issue":      rep.ByIssue,
	}
	if len(ranked) == 0 {
		res["_guidance"] = []string{"No worklogs in this range. Check the project key and the dates, or pass refresh=true."}
	}

	if s.enableMermaidCharts {
		res["visual_hours_by_user"] = visuals.GenerateHoursByUserChart(ranked)
		res["visual_daily_hours"] = visuals.GenerateDailyHoursChart(*rep)
	}
	return res, nil
}

func (s *Server) handleListSprints(ctx context.Context, args ListSprintsArgs) (any, error) {
	sprints, err := s.assembler.ListSprints(ctx, args.Project)
	if err != nil {
		return nil, err
	}
	if sprints == nil {
		sprints = []jira.SprintDTO{}
	}
	return sprints, nil
}

func (s *Server) handleListSyncedSprints(ctx context.Context, _ NoArgs) (any, error) {
	list, err := s.assembler.SprintSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sprints": list, "count": len(list)}, nil
}

func (s *Server) handleSyncSprint(ctx context.Context, args SprintArgs) (any, error) {
	if args.SprintID <= 0 {
		return nil, fmt.Errorf("sprint_id must be a positive number")
	}
	return s.assembler.SyncSprint(ctx, args.SprintID)
}

func (s *Server) handleSyncProject(ctx context.Context, args SyncProjectArgs) (any, error) {
	results, err := s.assembler.SyncProject(ctx, args.Project, args.IncludeClosed)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []report.SyncResult{}
	}
	return map[string]any{"synced": results, "count": len(results)}, nil
}

// sprintQuery validates the enum arguments and resolves the team.
func (s *Server) sprintQuery(args SprintReportArgs) (report.SprintQuery, error) {
	if args.SprintID <= 0 {
		return report.SprintQuery{}, fmt.Errorf("sprint_id must be a positive number")
	}
	metric, err := stats.ParseBurndownMetric(args.BurndownMetric)
	if err != nil {
		return report.SprintQuery{}, err
	}
	field, err := stats.ParseCompletionField(args.CompletionField)
	if err != nil {
		return report.SprintQuery{}, err
	}
	dist, err := stats.ParseDistributionMetric(args.DistributionMetric)
	if err != nil {
		return report.SprintQuery{}, err
	}
	members, err := s.members(args.Team)
	if err != nil {
		return report.SprintQuery{}, err
	}

	return report.SprintQuery{
		SprintID:         args.SprintID,
		Refresh:          args.Refresh,
		Burndown:         metric,
		Completion:       field,
		Distribution:     dist,
		IncludeOtherDone: args.IncludeOtherDone,
		TargetPerUser:    args.TargetHoursPerUser,
		DashboardOnly:    args.DashboardOnly,
		Members:          members,
		Inactive:         s.team.Inactive,
		WithIssues:       args.IncludeIssues,
	}, nil
}

func (s *Server) handleSprintReport(ctx context.Context, args SprintReportArgs) (any, error) {
	q, err := s.sprintQuery(args)
	if err != nil {
		return nil, err
	}
	rep, err := s.assembler.SprintReport(ctx, q)
	if err != nil {
		return nil, err
	}

	res := map[string]any{"report": rep}
	var guidance []string
	if rep.Burndown == nil {
		guidance = append(guidance, "The sprint has no start or end date, so burndown and progress are not available and values are not limited to the sprint.")
	}
	if rep.Stats.TotalIssues == 0 {
		guidance = append(guidance, "No issues matched. Check the team and dashboard filters, or sync the sprint again.")
	}
	if len(guidance) > 0 {
		res["_guidance"] = guidance
	}

	if s.enableMermaidCharts {
		if rep.Burndown != nil {
			res["visual_burndown"] = visuals.GenerateBurndownChart(*rep.Burndown, rep.ElapsedDays)
		}
		res["visual_status_pie"] = visuals.GenerateStatusPie(rep.Distribution)
		res["visual_time_by_user"] = visuals.GenerateTimeByUserChart(rep.TimeByUser)
		res["visual_performance"] = visuals.GeneratePerformanceChart(rep.Performance)
	}
	return res, nil
}

func (s *Server) handleSprintIssues(ctx context.Context, args SprintIssuesArgs) (any, error) {
	if args.SprintID <= 0 {
		return nil, fmt.Errorf("sprint_id must be a positive number")
	}
	snap, err := s.assembler.LoadSprint(ctx, args.SprintID, false)
	if err != nil {
		return nil, err
	}

	issues := report.SelectIssues(snap.Issues, report.SprintQuery{DashboardOnly: args.DashboardOnly})
	out := make([]jira.Issue, 0, len(issues))
	for _, is := range issues {
		if args.Status != "" && !stats.EqualFold(is.Status, args.Status) {
			continue
		}
		if args.Assignee != "" && !stats.EqualFold(is.Assignee, args.Assignee) {
			continue
		}
		out = append(out, is)
	}
	return map[string]any{
		"sprint_id":   snap.SprintID,
		"sprint_name": snap.SprintName,
		"updated_at":  snap.UpdatedAt,
		"count":       len(out),
		"issues":      out,
	}, nil
}

func (s *Server) handleSetIssueField(ctx context.Context, args SetIssueFieldArgs) (any, error) {
	fieldID, shape, err := s.assembler.SetIssueField(ctx, args.IssueKey, args.Field, args.Value)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"issue_key": args.IssueKey,
		"field_id":  fieldID,
		"payload":   shape,
		"_guidance": []string{"Stored snapshots still hold the old value until the sprint is synced again."},
	}, nil
}

func (s *Server) handleListTeams(_ context.Context, _ NoArgs) (any, error) {
	teams := make([]map[string]any, 0, len(s.team.Teams))
	for _, name := range s.team.TeamNames() {
		teams = append(teams, map[string]any{"name": name, "members": s.team.Teams[name]})
	}
	return map[string]any{
		"teams":    teams,
		"inactive": s.team.Inactive,
		"excluded": s.team.Excluded,
	}, nil
}

func (s *Server) handleClearCache(_ context.Context, _ NoArgs) (any, error) {
	n := s.assembler.Cache().Len()
	s.assembler.Cache().Clear()
	return map[string]any{"cleared": n}, nil
}
