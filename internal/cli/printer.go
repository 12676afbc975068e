package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"tasklist/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func isSupportedFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return true
	}
	return false
}

// printTasks writes tasks to w in the given format
func printTasks(w io.Writer, tasks []domain.Task, format string) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tasks)
	case formatCSV:
		return printCSV(w, tasks)
	default:
		return printTable(w, tasks)
	}
}

func printTable(w io.Writer, tasks []domain.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", task.ID, task.Title, task.Description)
	}
	return tw.Flush()
}

func printCSV(w io.Writer, tasks []domain.Task) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "title", "description"}); err != nil {
		return err
	}
	for _, task := range tasks {
		record := []string{strconv.FormatInt(task.ID, 10), task.Title, task.Description}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
