package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/shaiso/launchpad/internal/domain"
)

// chartWidth — ширина самой длинной полосы в графике длительностей.
const chartWidth = 40

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений

	ok      *color.Color
	warn    *color.Color
	fail    *color.Color
	muted   *color.Color
	pending *color.Color
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
// noColor отключает ANSI-цвета (в JSON-режиме они выключены всегда).
func NewOutput(w, errW io.Writer, jsonMode, noColor bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	if errW == nil {
		errW = os.Stderr
	}

	o := &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
		ok:       color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
		fail:     color.New(color.FgRed),
		muted:    color.New(color.FgHiBlack),
		pending:  color.New(color.FgCyan),
	}

	if noColor || jsonMode {
		for _, c := range []*color.Color{o.ok, o.warn, o.fail, o.muted, o.pending} {
			c.DisableColor()
		}
	}
	return o
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, o.ok.Sprint(msg))
}

// Warn выводит предупреждение в stderr.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.errW, o.warn.Sprint(msg))
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, o.fail.Sprint("Error: "+msg))
}

// Report выводит отчёт о run: таблицу задач и итоговую строку.
func (o *Output) Report(report *domain.RunReport) {
	if o.jsonMode {
		o.JSON(report)
		return
	}

	if report.Anomaly != "" {
		o.Warn("warning: " + report.Anomaly)
	}

	headers := []string{"TASK", "GROUP", "STATUS", "ATTEMPTS", "DETAIL"}
	rows := make([][]string, len(report.Outcomes))
	for i := range report.Outcomes {
		oc := &report.Outcomes[i]
		attempts := ""
		if oc.Attempts > 0 {
			attempts = strconv.Itoa(oc.Attempts)
		}
		rows[i] = []string{oc.Task, oc.Group, o.status(oc.Status), attempts, outcomeDetail(oc)}
	}
	o.Table(headers, rows)

	fmt.Fprintln(o.w)
	switch {
	case report.DryRun:
		fmt.Fprintf(o.w, "Plan: %s\n", strings.Join(report.Order, " → "))
	case report.Cancelled:
		fmt.Fprintln(o.w, o.warn.Sprint("Startup cancelled"))
	case report.Success():
		fmt.Fprintln(o.w, o.ok.Sprintf("All systems ready in %.0fs", report.Duration().Seconds()))
	default:
		fmt.Fprintln(o.w, o.fail.Sprintf("Completed with %d error(s)", len(report.Failures())))
	}
}

// status окрашивает статус. Текст выравнивается до окраски,
// чтобы escape-последовательности не ломали колонки tabwriter.
func (o *Output) status(s domain.TaskStatus) string {
	text := fmt.Sprintf("%-9s", s)
	switch s {
	case domain.TaskStatusVerified:
		return o.ok.Sprint(text)
	case domain.TaskStatusFailed, domain.TaskStatusBlocked:
		return o.fail.Sprint(text)
	case domain.TaskStatusCancelled:
		return o.warn.Sprint(text)
	case domain.TaskStatusSkipped:
		return o.muted.Sprint(text)
	default:
		return o.pending.Sprint(text)
	}
}

func outcomeDetail(oc *domain.TaskOutcome) string {
	switch oc.Status {
	case domain.TaskStatusSkipped:
		if oc.Detail != "" {
			return fmt.Sprintf("%s: %s", oc.SkipReason, oc.Detail)
		}
		return string(oc.SkipReason)
	case domain.TaskStatusVerified:
		if d := oc.Duration(); d > 0 {
			return d.Round(100 * time.Millisecond).String()
		}
		return ""
	case domain.TaskStatusPending:
		return ""
	default:
		return oc.Reason()
	}
}

// History выводит историю run'ов (новые первыми).
func (o *Output) History(records []domain.RunRecord) {
	if o.jsonMode {
		o.JSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(o.w, "No metrics recorded yet.")
		return
	}

	headers := []string{"#", "TIME", "PROFILE", "TRIGGER", "DURATION", "RESULT", "PHASES", "ERRORS"}
	rows := make([][]string, len(records))
	for i, rec := range records {
		profile := rec.Profile
		if profile == "" {
			profile = "default"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Timestamp.Local().Format(time.DateTime),
			profile,
			rec.Trigger,
			fmt.Sprintf("%.1fs", rec.DurationSeconds),
			o.result(rec),
			o.phases(rec.Phases),
			strings.Join(rec.Errors, "; "),
		}
	}
	o.Table(headers, rows)
}

// phases форматирует итоги групп: "apps ✗ 7.0s, system ✓ 2.0s".
func (o *Output) phases(phases map[string]domain.PhaseRecord) string {
	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		p := phases[name]
		mark := o.ok.Sprint("✓")
		if !p.Success {
			mark = o.fail.Sprint("✗")
		}
		parts[i] = fmt.Sprintf("%s %s %.1fs", name, mark, p.Duration)
	}
	return strings.Join(parts, ", ")
}

func (o *Output) result(rec domain.RunRecord) string {
	switch {
	case rec.Cancelled:
		return o.warn.Sprint("cancelled")
	case rec.Success:
		return o.ok.Sprint("✓")
	default:
		return o.fail.Sprint("✗")
	}
}

// Summary выводит агрегированную статистику.
func (o *Output) Summary(s domain.RunSummary) {
	if o.jsonMode {
		o.JSON(s)
		return
	}

	rule := strings.Repeat("=", 40)
	fmt.Fprintln(o.w, rule)
	fmt.Fprintln(o.w, "Summary Statistics")
	fmt.Fprintln(o.w, rule)
	fmt.Fprintf(o.w, "Total Runs: %d\n", s.TotalRuns)
	fmt.Fprintf(o.w, "Success Rate: %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(o.w, "Avg Duration: %.1fs\n", s.AvgDuration)
	if s.LastRun != nil {
		fmt.Fprintf(o.w, "Last Run: %s\n", s.LastRun.Local().Format(time.DateTime))
	}
	fmt.Fprintln(o.w, rule)
}

// Chart выводит график длительностей в хронологическом порядке.
// records приходят новыми первыми.
func (o *Output) Chart(records []domain.RunRecord) {
	fmt.Fprint(o.w, FormatChart(records))
}

// FormatChart строит ASCII-график длительностей run'ов.
func FormatChart(records []domain.RunRecord) string {
	if len(records) == 0 {
		return "No data for chart.\n"
	}

	var maxDuration float64
	for _, rec := range records {
		maxDuration = max(maxDuration, rec.DurationSeconds)
	}

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	b.WriteString("Startup Duration Trend:\n")
	b.WriteString(rule + "\n")
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		bar := 0
		if maxDuration > 0 {
			bar = int(rec.DurationSeconds / maxDuration * chartWidth)
		}
		fmt.Fprintf(&b, "%s | %5.1fs |%s\n",
			rec.Timestamp.Local().Format(time.DateOnly), rec.DurationSeconds, strings.Repeat("█", bar))
	}
	b.WriteString(rule + "\n")
	return b.String()
}
