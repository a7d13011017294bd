package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/webframp/changelogd/changelog"
)

// printDiff writes a unified diff with added lines green, removed lines red
// and hunk headers cyan.
func printDiff(out io.Writer, diff string) {
	if diff == "" {
		fmt.Fprintln(out, color.New(color.Faint).Sprint("(no changes)"))
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		text := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			fmt.Fprintln(out, bold(text))
		case strings.HasPrefix(text, "@@"):
			fmt.Fprintln(out, cyan(text))
		case strings.HasPrefix(text, "+"):
			fmt.Fprintln(out, green(text))
		case strings.HasPrefix(text, "-"):
			fmt.Fprintln(out, red(text))
		default:
			fmt.Fprintln(out, text)
		}
	}
}

// printResult summarises a mutation.
func printResult(out io.Writer, res *changelog.Result, showDiff bool) {
	if showDiff || !res.Saved {
		printDiff(out, res.Diff)
	}

	verb := map[changelog.Action]string{
		changelog.ActionAdd:    "added",
		changelog.ActionUpdate: "updated",
		changelog.ActionRemove: "removed",
	}[res.Action]

	if !res.Saved {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(out, "%s would have %s %s (dry run)\n", yellow("!"), verb, res.Version)
		return
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s %s\n", green("✓"), verb, res.Version)
}

// printReleases lists releases one per line, marking the ones shown on the
// landing view.
func printReleases(out io.Writer, doc *changelog.Document) {
	if len(doc.Releases) == 0 {
		fmt.Fprintln(out, "No releases.")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for i, r := range doc.Releases {
		marker := " "
		if i < doc.ShowOnMain {
			marker = "*"
		}
		date := r.Date()
		if date == "" {
			date = "----------"
		}
		fmt.Fprintf(out, "%s %-12s %s %s\n", marker, cyan(r.Version()), date, dim(fmt.Sprintf("(%d items)", itemCount(r))))
	}
	if doc.APKURL != "" {
		fmt.Fprintf(out, "\napk: %s\n", doc.APKURL)
	}
}
