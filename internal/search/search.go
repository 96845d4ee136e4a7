package search

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/skirt-timeline/internal/index"
)

type Options struct {
	Prefix   string // "" = all, otherwise a prefix of the simulation prefix
	Dir      string // "" = all, otherwise a substring of the run directory
	Since    string // "" = no filter, e.g. "2024-01-01"
	MinProcs int    // 0 = no filter
	OrderBy  string // "started" (default), "total" or "overhead"
	Limit    int
}

var orderClauses = map[string]string{
	"":         "started_at DESC",
	"started":  "started_at DESC",
	"total":    "total DESC",
	"overhead": "overhead DESC",
}

// ListRuns returns the indexed runs matching opts.
func ListRuns(db *index.DB, opts Options) ([]index.RunRow, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	order, ok := orderClauses[opts.OrderBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort order %q", opts.OrderBy)
	}

	var conditions []string
	var args []interface{}

	if opts.Prefix != "" {
		conditions = append(conditions, "prefix LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(opts.Prefix)+"%")
	}
	if opts.Dir != "" {
		conditions = append(conditions, "dir LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(opts.Dir)+"%")
	}
	if opts.Since != "" {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, opts.Since)
	}
	if opts.MinProcs > 0 {
		conditions = append(conditions, "processes >= ?")
		args = append(args, opts.MinProcs)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM runs
		%s
		ORDER BY %s, run_key
		LIMIT ?
	`, index.RunColumns, where, order)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []index.RunRow
	for rows.Next() {
		r, err := index.ScanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
