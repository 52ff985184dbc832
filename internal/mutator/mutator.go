package mutator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Mutator implements sanitize.BulkMutator on top of a DBConnection.
type Mutator struct {
	conn      sanitize.DBConnection
	logger    sanitize.Logger
	batchSize int
}

// New creates a Mutator. A non-positive batchSize selects sanitize.DefaultBatchSize.
func New(conn sanitize.DBConnection, logger sanitize.Logger, batchSize int) *Mutator {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = sanitize.DefaultBatchSize
	}
	return &Mutator{conn: conn, logger: logger, batchSize: batchSize}
}

// BatchSize returns the number of rows handled per statement.
func (m *Mutator) BatchSize() int { return m.batchSize }

// ReplaceAttribute rewrites every non-empty value stored under any of the
// key variants, one generated value per row.
func (m *Mutator) ReplaceAttribute(ctx context.Context, table sanitize.AttributeTable, variants []string, gen func() string) (int64, error) {
	if len(variants) == 0 {
		return 0, nil
	}

	t := quoteAttributeTable(table)
	selectSQL := fmt.Sprintf(
		`SELECT %[2]s FROM %[1]s
		WHERE %[3]s = ANY($1) AND %[4]s IS NOT NULL AND %[4]s <> '' AND %[2]s > $2
		ORDER BY %[2]s LIMIT $3`,
		t.name, t.id, t.key, t.value)
	updateSQL := fmt.Sprintf(
		`UPDATE %[1]s AS t SET %[3]s = v.val
		FROM unnest($1::bigint[], $2::text[]) AS v(id, val)
		WHERE t.%[2]s = v.id`,
		t.name, t.id, t.value)

	var total int64
	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return total, bulkError("replace", table.Name, variants[0], err)
		}

		ids, err := m.selectIDs(ctx, selectSQL, variants, lastID, m.batchSize)
		if err != nil {
			return total, bulkError("replace", table.Name, variants[0], err)
		}
		if len(ids) == 0 {
			break
		}

		values := make([]string, len(ids))
		for i := range ids {
			values[i] = gen()
		}

		tag, err := m.conn.Exec(ctx, updateSQL, ids, values)
		if err != nil {
			return total, bulkError("replace", table.Name, variants[0], err)
		}
		total += tag.RowsAffected()
		lastID = ids[len(ids)-1]

		m.logger.Verbose("%s: replaced %d %s values (up to id %d)", table.Name, tag.RowsAffected(), variants[0], lastID)

		if len(ids) < m.batchSize {
			break
		}
	}
	return total, nil
}

// DeleteAttribute removes every row stored under any of the key variants.
func (m *Mutator) DeleteAttribute(ctx context.Context, table sanitize.AttributeTable, variants []string) (int64, error) {
	if len(variants) == 0 {
		return 0, nil
	}

	t := quoteAttributeTable(table)
	deleteSQL := fmt.Sprintf(
		`DELETE FROM %[1]s WHERE %[2]s IN (
			SELECT %[2]s FROM %[1]s WHERE %[3]s = ANY($1) LIMIT $2
		)`,
		t.name, t.id, t.key)

	total, err := m.deleteLoop(ctx, deleteSQL, variants)
	if err != nil {
		return total, bulkError("delete", table.Name, variants[0], err)
	}
	if total > 0 {
		m.logger.Verbose("%s: deleted %d %s entries", table.Name, total, variants[0])
	}
	return total, nil
}

// DeleteByPrefix removes every row whose key starts with any of the prefixes.
// LIKE metacharacters in the prefixes match literally.
func (m *Mutator) DeleteByPrefix(ctx context.Context, table sanitize.AttributeTable, prefixes []string) (int64, error) {
	if len(prefixes) == 0 {
		return 0, nil
	}

	patterns := make([]string, len(prefixes))
	for i, p := range prefixes {
		patterns[i] = EscapeLike(p) + "%"
	}

	t := quoteAttributeTable(table)
	deleteSQL := fmt.Sprintf(
		`DELETE FROM %[1]s WHERE %[2]s IN (
			SELECT %[2]s FROM %[1]s WHERE %[3]s LIKE ANY($1) LIMIT $2
		)`,
		t.name, t.id, t.key)

	total, err := m.deleteLoop(ctx, deleteSQL, patterns)
	if err != nil {
		return total, bulkError("delete", table.Name, strings.Join(prefixes, ","), err)
	}
	if total > 0 {
		m.logger.Verbose("%s: deleted %d rows matching %s", table.Name, total, strings.Join(prefixes, ", "))
	}
	return total, nil
}

// ReplaceColumns rewrites the non-empty cells of the given columns. Empty
// and NULL cells stay as they are.
func (m *Mutator) ReplaceColumns(ctx context.Context, table sanitize.ColumnTable, columns map[string]func() string) (int64, error) {
	if len(columns) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(columns))
	for c := range columns {
		names = append(names, c)
	}
	sort.Strings(names)

	tableName := pgx.Identifier{table.Name}.Sanitize()
	idCol := pgx.Identifier{table.IDColumn}.Sanitize()

	quoted := make([]string, len(names))
	sets := make([]string, len(names))
	unnestArgs := make([]string, len(names)+1)
	aliases := make([]string, len(names)+1)
	unnestArgs[0] = "$1::bigint[]"
	aliases[0] = "id"
	for i, n := range names {
		quoted[i] = pgx.Identifier{n}.Sanitize()
		alias := fmt.Sprintf("c%d", i)
		sets[i] = fmt.Sprintf("%s = COALESCE(v.%s, t.%s)", quoted[i], alias, quoted[i])
		unnestArgs[i+1] = fmt.Sprintf("$%d::text[]", i+2)
		aliases[i+1] = alias
	}

	selectSQL := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s > $1 ORDER BY %s LIMIT $2`,
		idCol, strings.Join(quoted, ", "), tableName, idCol, idCol)
	updateSQL := fmt.Sprintf(`UPDATE %s AS t SET %s FROM unnest(%s) AS v(%s) WHERE t.%s = v.id`,
		tableName, strings.Join(sets, ", "), strings.Join(unnestArgs, ", "), strings.Join(aliases, ", "), idCol)

	var total int64
	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return total, bulkError("replace", table.Name, "columns", err)
		}

		ids, cells, err := m.selectCells(ctx, selectSQL, len(names), lastID)
		if err != nil {
			return total, bulkError("replace", table.Name, "columns", err)
		}
		if len(ids) == 0 {
			break
		}
		lastID = ids[len(ids)-1]

		// One array per column; nil keeps the stored cell.
		arrays := make([][]*string, len(names))
		for c := range names {
			arrays[c] = make([]*string, len(ids))
		}
		var replaced int64
		for r := range ids {
			for c, name := range names {
				if cell := cells[r][c]; cell == nil || *cell == "" {
					continue
				}
				v := columns[name]()
				arrays[c][r] = &v
				replaced++
			}
		}

		if replaced > 0 {
			args := make([]any, 0, len(names)+1)
			args = append(args, ids)
			for _, a := range arrays {
				args = append(args, a)
			}
			if _, err := m.conn.Exec(ctx, updateSQL, args...); err != nil {
				return total, bulkError("replace", table.Name, "columns", err)
			}
			total += replaced
			m.logger.Verbose("%s: replaced %d cells (up to id %d)", table.Name, replaced, lastID)
		}

		if len(ids) < m.batchSize {
			break
		}
	}
	return total, nil
}

// Truncate removes every row of the table.
func (m *Mutator) Truncate(ctx context.Context, table string) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", pgx.Identifier{table}.Sanitize())
	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate %s: %w: %w", table, sanitize.ErrBulkOperation, err)
	}
	m.logger.Verbose("%s: truncated", table)
	return nil
}

func (m *Mutator) selectIDs(ctx context.Context, query string, variants []string, after int64, limit int) ([]int64, error) {
	rows, err := m.conn.Query(ctx, query, variants, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (m *Mutator) selectCells(ctx context.Context, query string, width int, after int64) ([]int64, [][]*string, error) {
	rows, err := m.conn.Query(ctx, query, after, m.batchSize)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var ids []int64
	var cells [][]*string
	for rows.Next() {
		var id int64
		row := make([]*string, width)
		dest := make([]any, width+1)
		dest[0] = &id
		for i := range row {
			dest[i+1] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		cells = append(cells, row)
	}
	return ids, cells, rows.Err()
}

func (m *Mutator) deleteLoop(ctx context.Context, query string, match []string) (int64, error) {
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		tag, err := m.conn.Exec(ctx, query, match, m.batchSize)
		if err != nil {
			return total, err
		}
		n := tag.RowsAffected()
		total += n
		if n == 0 {
			return total, nil
		}
	}
}

type quotedAttributeTable struct {
	name, id, key, value string
}

func quoteAttributeTable(t sanitize.AttributeTable) quotedAttributeTable {
	return quotedAttributeTable{
		name:  pgx.Identifier{t.Name}.Sanitize(),
		id:    pgx.Identifier{t.IDColumn}.Sanitize(),
		key:   pgx.Identifier{t.KeyColumn}.Sanitize(),
		value: pgx.Identifier{t.ValueColumn}.Sanitize(),
	}
}

// EscapeLike escapes the LIKE metacharacters of s using the default
// backslash escape.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func bulkError(op, table, what string, err error) error {
	return fmt.Errorf("%s %s in %s: %w: %w", op, what, table, sanitize.ErrBulkOperation, err)
}

var _ sanitize.BulkMutator = (*Mutator)(nil)
