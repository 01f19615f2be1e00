package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/isectech/ctf-datagen/infrastructure/catalog"
	"github.com/isectech/ctf-datagen/usecase"
)

// RenderExerciseTable renders catalog entries as aligned columns
func RenderExerciseTable(entries []catalog.Entry) string {
	if len(entries) == 0 {
		return Styles.Key.Render("No exercises found")
	}

	idWidth, titleWidth := len("EXERCISE"), len("TITLE")
	for _, e := range entries {
		idWidth = max(idWidth, len(e.ID))
		titleWidth = max(titleWidth, len(e.Title))
	}

	var b strings.Builder
	header := fmt.Sprintf("%-*s  %-*s  %-7s  %6s  %s", idWidth, "EXERCISE", titleWidth, "TITLE", "BELT", "POINTS", "TABLE")
	b.WriteString(Styles.Bold.Render(header))
	for _, e := range entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%-*s  %-*s  %s  %6d  %s",
			idWidth, e.ID,
			titleWidth, e.Title,
			Belt(e.Belt)+strings.Repeat(" ", max(0, 7-len(e.Belt))),
			e.Points,
			strings.Join(e.Tables, ","))
	}
	return b.String()
}

// RenderBeltHeading renders the title line of one belt group
func RenderBeltHeading(belt string, entries []catalog.Entry) string {
	points := 0
	for _, e := range entries {
		points += e.Points
	}
	return Styles.Section.Render(fmt.Sprintf("%s belt: %d exercises, %d points", Belt(belt), len(entries), points))
}

// RenderExercise renders one catalog entry. The flag and solution are only
// shown when reveal is set.
func RenderExercise(e *catalog.Entry, reveal bool) string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(fmt.Sprintf("%s  (%s)", e.Title, e.ID)))
	b.WriteString("\n")

	field := func(k, v string) {
		fmt.Fprintf(&b, "%s %s\n", Styles.Key.Render(fmt.Sprintf("%-10s", k+":")), Styles.Value.Render(v))
	}
	field("Belt", Belt(e.Belt))
	field("Points", fmt.Sprintf("%d", e.Points))
	field("Category", e.Category)
	field("Tables", strings.Join(e.Tables, ", "))
	if len(e.Mitre) > 0 {
		field("MITRE", strings.Join(e.Mitre, ", "))
	}

	b.WriteString(Styles.Section.Render("Objective"))
	b.WriteString("\n" + e.Objective + "\n")

	b.WriteString(Styles.Section.Render("Hints"))
	for i, h := range e.Hints {
		fmt.Fprintf(&b, "\n  %d. [-%d pts] %s", i+1, h.Cost, h.Text)
	}
	b.WriteString("\n")

	if reveal {
		b.WriteString(Styles.Section.Render("Solution"))
		b.WriteString("\n" + Styles.Box.Render(strings.TrimSpace(e.Solution)) + "\n")
		field("Flag", Styles.Flag.Render(e.Flag.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderGenerateSummary renders one line per generated exercise
func RenderGenerateSummary(results []usecase.ExerciseResult, outputDir string) string {
	var b strings.Builder
	total := 0
	for _, r := range results {
		tables := make([]string, len(r.Tables))
		for i, t := range r.Tables {
			tables[i] = fmt.Sprintf("%s=%d", t.Name, t.Records)
			total += t.Records
		}
		fmt.Fprintf(&b, "  %-24s %s  %s\n",
			r.Exercise,
			Styles.Value.Render(strings.Join(tables, " ")),
			Styles.Key.Render(fmt.Sprintf("flags=%d %s", r.FlagRecords, r.Duration.Round(time.Millisecond))))
	}
	b.WriteString(Styles.Muted.Render(fmt.Sprintf("%d datasets, %d records written to %s", len(results), total, outputDir)))
	return b.String()
}

// RenderVerifyResults renders the outcome of verifying stored datasets
func RenderVerifyResults(results []usecase.VerifyResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(&b, "  %s %-24s %s\n", successColor.Sprint("✓"), r.Exercise,
				Styles.Key.Render(fmt.Sprintf("%d records, seed %d", r.Records, r.Info.Seed)))
			continue
		}
		fmt.Fprintf(&b, "  %s %-24s %s\n", errorColor.Sprint("✗"), r.Exercise, r.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}
