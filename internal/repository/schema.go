package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/persistence"
)

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title       VARCHAR(%d) NOT NULL,
    description TEXT NOT NULL,
    category    TEXT NOT NULL,
    priority    TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'open',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status);`

// TicketMigrations returns the schema for the tickets table. The CHECK
// constraints are rebuilt from the domain vocabularies on every run.
func TicketMigrations() []persistence.Migration {
	return []persistence.Migration{
		{Name: "0001_create_tickets", SQL: fmt.Sprintf(createTicketsTable, domain.TitleMaxLength)},
		{Name: "0002_ticket_vocabulary", SQL: vocabularyConstraints()},
	}
}

func vocabularyConstraints() string {
	var b strings.Builder
	for _, c := range []struct {
		column string
		values []string
	}{
		{"category", domain.CategoryValues()},
		{"priority", domain.PriorityValues()},
		{"status", domain.StatusValues()},
	} {
		name := "tickets_" + c.column + "_check"
		fmt.Fprintf(&b, "ALTER TABLE tickets DROP CONSTRAINT IF EXISTS %s;\n", name)
		fmt.Fprintf(&b, "ALTER TABLE tickets ADD CONSTRAINT %s CHECK (%s IN (%s));\n",
			name, c.column, quoteList(c.values))
	}
	return b.String()
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
