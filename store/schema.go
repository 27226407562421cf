package store

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder style and DDL types.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// Tables in creation order. Children come after activities.
var tables = []string{"activities", "trackpoints", "intervals", "summary"}

var schemaTemplate = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		act_id {{timestamp}} PRIMARY KEY,
		filename VARCHAR(255) UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS trackpoints (
		act_id {{timestamp}} REFERENCES activities(act_id) ON DELETE CASCADE,
		time {{float}},
		distance {{float}},
		hr INTEGER,
		speed {{float}},
		cadence INTEGER,
		latitude {{float}},
		longitude {{float}},
		altitude {{float}},
		pace {{float}}
	)`,
	`CREATE TABLE IF NOT EXISTS intervals (
		act_id {{timestamp}} REFERENCES activities(act_id) ON DELETE CASCADE,
		start_time {{float}},
		stop_time {{float}},
		start_dist {{float}},
		stop_dist {{float}},
		dhr INTEGER,
		type VARCHAR(4),
		duration {{float}},
		distance {{float}},
		hrrate {{float}}
	)`,
	`CREATE TABLE IF NOT EXISTS summary (
		act_id {{timestamp}} REFERENCES activities(act_id) ON DELETE CASCADE,
		duration VARCHAR(16),
		distance {{float}},
		pace {{float}},
		avg_hr {{float}},
		run_pct {{float}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trackpoints_act_id ON trackpoints(act_id)`,
	`CREATE INDEX IF NOT EXISTS idx_intervals_act_id ON intervals(act_id)`,
	`CREATE INDEX IF NOT EXISTS idx_summary_act_id ON summary(act_id)`,
}

func schema(d Dialect) []string {
	float := "REAL"
	if d == Postgres {
		float = "DOUBLE PRECISION"
	}
	r := strings.NewReplacer("{{timestamp}}", "TIMESTAMP", "{{float}}", float)
	out := make([]string, 0, len(schemaTemplate))
	for _, stmt := range schemaTemplate {
		out = append(out, r.Replace(stmt))
	}
	return out
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
