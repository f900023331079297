package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// tabular results render as a table in table mode.
type tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// table pairs a JSON payload with its tabular rendering.
type table struct {
	payload interface{}
	headers []string
	rows    [][]string
}

func (t table) TableHeaders() []string { return t.headers }
func (t table) TableRows() [][]string  { return t.rows }

func (t table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.payload)
}

func wantsJSON(cmd *cobra.Command) bool {
	cliCtx, err := GetCLIContext(cmd)
	return err != nil || cliCtx.OutputFormat == FormatJSON
}

// PrintResult writes data as JSON or, in table mode, as a table when data is
// tabular and as plain text otherwise.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	if wantsJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), data)
	}
	t, ok := data.(tabular)
	if !ok {
		return printText(cmd, data)
	}
	if len(t.TableRows()) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "(no rows)")
		return err
	}
	_, err := io.WriteString(cmd.OutOrStdout(), FormatTable(t.TableHeaders(), t.TableRows()))
	return err
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printText prints strings and Stringers as a line; anything else as JSON.
func printText(cmd *cobra.Command, data interface{}) error {
	var line string
	switch v := data.(type) {
	case string:
		line = v
	case fmt.Stringer:
		line = v.String()
	default:
		return printJSON(cmd.OutOrStdout(), data)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
	return err
}

// PrintError writes err to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
	}
}

// PrintSuccess reports a completed write.
func PrintSuccess(cmd *cobra.Command, msg string) {
	if wantsJSON(cmd) {
		_ = printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok", "message": msg})
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable aligns rows under headers with two spaces between columns and
// a dashed rule below the header.  Cells beyond the header count are dropped
// and the last column is never padded.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	width := make([]int, len(headers))
	grow := func(cells []string) {
		for i := range width {
			if i < len(cells) && len(cells[i]) > width[i] {
				width[i] = len(cells[i])
			}
		}
	}
	grow(headers)
	for _, r := range rows {
		grow(r)
	}

	rule := make([]string, len(width))
	for i, w := range width {
		rule[i] = strings.Repeat("-", w)
	}

	var sb strings.Builder
	for _, cells := range append([][]string{headers, rule}, rows...) {
		last := len(width) - 1
		for i := 0; i < last; i++ {
			sb.WriteString(padRight(cell(cells, i), width[i]))
			sb.WriteString("  ")
		}
		sb.WriteString(cell(cells, last))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func padRight(s string, width int) string {
	if n := width - len(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }
