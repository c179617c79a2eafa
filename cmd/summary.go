package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/model"
)

func printPlan(w io.Writer, plan *model.ReconcilePlan) {
	fmt.Fprintf(w, "Evaluated %s users against %s groups.\n",
		humanize.Comma(int64(plan.UsersEvaluated)), humanize.Comma(int64(plan.GroupsEvaluated)))
	if plan.Empty() {
		fmt.Fprintln(w, "No membership changes needed.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tUSER\tGROUP\tREASON")
	for _, action := range plan.Actions() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", action.Action, displayUser(action), action.GroupName, strings.Join(action.Reasons, "; "))
	}
	tw.Flush()
}

func printRunSummary(w io.Writer, rulesCreated int, run *model.RunResult) {
	if rulesCreated > 0 {
		fmt.Fprintf(w, "Created %s default rule entries.\n", humanize.Comma(int64(rulesCreated)))
	}
	printPlan(w, run.Plan)
	if run.DryRun || run.Result == nil {
		fmt.Fprintln(w, "Dry run, nothing applied.")
		return
	}
	r := run.Result
	fmt.Fprintf(w, "Applied: %s added, %s removed, %s skipped, %s failed.\n",
		humanize.Comma(int64(r.Added)), humanize.Comma(int64(r.Removed)),
		humanize.Comma(int64(r.Skipped)), humanize.Comma(int64(r.Failed)))
}

func printUserEvaluation(w io.Writer, evaluation *model.UserEvaluation) {
	fmt.Fprintf(w, "User %s (%s)\n", evaluation.Username, evaluation.UserID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tVALUE")
	for _, name := range evaluation.Attributes.Names() {
		fmt.Fprintf(tw, "%s\t%v\n", name, evaluation.Attributes[name])
	}
	tw.Flush()

	if len(evaluation.Matches) == 0 {
		fmt.Fprintln(w, "Qualifies for no dynamic groups.")
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tMEMBER\tREASON")
	for _, match := range evaluation.Matches {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", match.GroupName, match.IsMember, strings.Join(match.Reasons, "; "))
	}
	tw.Flush()
}

func printAuditEntries(w io.Writer, entries []audit.AuditEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tUSER\tGROUP\tSUMMARY")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(entry.CreatedAt, now, "ago", "from now"),
			entry.Action, entry.UserID, entry.GroupID, entry.EvaluationSummary)
	}
	tw.Flush()
}

func displayUser(action model.MembershipAction) string {
	if action.Username != "" {
		return action.Username
	}
	return action.UserID
}
