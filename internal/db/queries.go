package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/hpungsan/qdpx/internal/errors"
)

// MaxSearchQueryChars bounds the code search query length.
const MaxSearchQueryChars = 200

// insertChunk bounds the rows per multi-row INSERT.
const insertChunk = 200

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.QdpxError{
	Code:    errors.ErrInvalidRequest,
	Message: "unique constraint violation",
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// ProjectRecord is one indexed project file.
type ProjectRecord struct {
	ID         string  `json:"id"`
	Path       string  `json:"path"`
	Name       string  `json:"name"`
	NameNorm   string  `json:"name_norm"`
	Origin     *string `json:"origin,omitempty"`
	FileSize   int64   `json:"file_size"`
	Checksum   string  `json:"checksum"`
	Codes      int     `json:"codes"`
	Sources    int     `json:"sources"`
	Selections int     `json:"selections"`
	Codings    int     `json:"codings"`
	IndexedAt  int64   `json:"indexed_at"`
	DeletedAt  *int64  `json:"deleted_at,omitempty"`

	// Snapshot is the CBOR-encoded project. Only GetByID fills it.
	Snapshot []byte `json:"-"`
}

// CodeRow is one code of an indexed project.
type CodeRow struct {
	ProjectID string  `json:"project_id"`
	Ord       int     `json:"ord"`
	GUID      string  `json:"guid"`
	Name      string  `json:"name"`
	NameNorm  string  `json:"-"`
	Path      string  `json:"path"`
	Depth     int     `json:"depth"`
	Codable   bool    `json:"codable"`
	Color     *string `json:"color,omitempty"`
	Usage     int     `json:"usage"`
}

// CodeMatch is a code search hit.
type CodeMatch struct {
	CodeRow
	ProjectName string `json:"project_name"`
	ProjectPath string `json:"project_path"`
}

// SourceRow is one source of an indexed project.
type SourceRow struct {
	ProjectID  string  `json:"project_id"`
	Ord        int     `json:"ord"`
	GUID       string  `json:"guid"`
	Kind       string  `json:"kind"`
	Name       *string `json:"name,omitempty"`
	MediaPath  *string `json:"media_path,omitempty"`
	Selections int     `json:"selections"`
	Codings    int     `json:"codings"`
}

// CodeFilter narrows SearchCodes.
type CodeFilter struct {
	Query     string  // normalized substring of the code name; may be empty when ProjectID is set
	ProjectID *string // restrict to one project
}

var projectColumns = []string{
	"id", "path", "name", "name_norm", "origin", "file_size", "checksum",
	"code_count", "source_count", "selection_count", "coding_count",
	"indexed_at", "deleted_at",
}

// Upsert stores rec with its code and source rows. An active record with
// the same path is replaced in place and keeps its ID; rec.ID is updated to
// the stored ID. Returns true if an existing record was replaced.
func Upsert(ctx context.Context, db *sql.DB, rec *ProjectRecord, codes []CodeRow, sources []SourceRow) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	defer tx.Rollback()

	query, args, err := builder.Select("id").From("projects").
		Where(squirrel.Eq{"path": rec.Path, "deleted_at": nil}).ToSql()
	if err != nil {
		return false, errors.NewInternal(err)
	}

	var existing string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&existing)
	replaced := err == nil
	if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		return false, errors.NewInternal(err)
	}

	if replaced {
		rec.ID = existing
		update := builder.Update("projects").SetMap(map[string]any{
			"name":            rec.Name,
			"name_norm":       rec.NameNorm,
			"origin":          toNullString(rec.Origin),
			"file_size":       rec.FileSize,
			"checksum":        rec.Checksum,
			"code_count":      rec.Codes,
			"source_count":    rec.Sources,
			"selection_count": rec.Selections,
			"coding_count":    rec.Codings,
			"snapshot":        rec.Snapshot,
			"indexed_at":      rec.IndexedAt,
		}).Where(squirrel.Eq{"id": rec.ID})
		if err := execBuilder(ctx, tx, update); err != nil {
			return false, err
		}
		for _, table := range []string{"codes", "sources"} {
			if err := execBuilder(ctx, tx, builder.Delete(table).Where(squirrel.Eq{"project_id": rec.ID})); err != nil {
				return false, err
			}
		}
	} else {
		insert := builder.Insert("projects").
			Columns(
				"id", "path", "name", "name_norm", "origin", "file_size", "checksum",
				"code_count", "source_count", "selection_count", "coding_count",
				"indexed_at", "snapshot",
			).
			Values(
				rec.ID, rec.Path, rec.Name, rec.NameNorm, toNullString(rec.Origin), rec.FileSize, rec.Checksum,
				rec.Codes, rec.Sources, rec.Selections, rec.Codings, rec.IndexedAt, rec.Snapshot,
			)
		if err := execBuilder(ctx, tx, insert); err != nil {
			return false, err
		}
	}

	if err := insertCodes(ctx, tx, rec.ID, codes); err != nil {
		return false, err
	}
	if err := insertSources(ctx, tx, rec.ID, sources); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, errors.NewInternal(err)
	}
	return replaced, nil
}

func insertCodes(ctx context.Context, tx *sql.Tx, projectID string, codes []CodeRow) error {
	for start := 0; start < len(codes); start += insertChunk {
		insert := builder.Insert("codes").Columns(
			"project_id", "ord", "guid", "name", "name_norm", "path", "depth", "codable", "color", "usage",
		)
		for _, c := range codes[start:min(start+insertChunk, len(codes))] {
			insert = insert.Values(projectID, c.Ord, c.GUID, c.Name, c.NameNorm, c.Path, c.Depth, c.Codable, toNullString(c.Color), c.Usage)
		}
		if err := execBuilder(ctx, tx, insert); err != nil {
			return err
		}
	}
	return nil
}

func insertSources(ctx context.Context, tx *sql.Tx, projectID string, sources []SourceRow) error {
	for start := 0; start < len(sources); start += insertChunk {
		insert := builder.Insert("sources").Columns(
			"project_id", "ord", "guid", "kind", "name", "media_path", "selections", "codings",
		)
		for _, s := range sources[start:min(start+insertChunk, len(sources))] {
			insert = insert.Values(projectID, s.Ord, s.GUID, s.Kind, toNullString(s.Name), toNullString(s.MediaPath), s.Selections, s.Codings)
		}
		if err := execBuilder(ctx, tx, insert); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a project record, including its snapshot.
// If includeDeleted is false, soft-deleted records are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*ProjectRecord, error) {
	where := squirrel.And{squirrel.Eq{"id": id}}
	if !includeDeleted {
		where = append(where, squirrel.Eq{"deleted_at": nil})
	}
	query, args, err := builder.Select(projectColumns...).Column("snapshot").
		From("projects").Where(where).ToSql()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec, err := scanProject(db.QueryRowContext(ctx, query, args...), true)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rec, nil
}

// ListProjects returns records without snapshots, most recently indexed first,
// along with the total number of matching records.
func ListProjects(ctx context.Context, db *sql.DB, limit, offset int, includeDeleted bool) ([]ProjectRecord, int, error) {
	var where squirrel.Sqlizer = squirrel.Expr("1=1")
	if !includeDeleted {
		where = squirrel.Eq{"deleted_at": nil}
	}

	total, err := count(ctx, db, builder.Select("COUNT(*)").From("projects").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := builder.Select(projectColumns...).From("projects").Where(where).
		OrderBy("indexed_at DESC", "id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []ProjectRecord
	for rows.Next() {
		rec, err := scanProject(rows, false)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

// SearchCodes finds codes of active projects whose normalized name contains
// f.Query, ordered by project recency then document order.
func SearchCodes(ctx context.Context, db *sql.DB, f CodeFilter, limit, offset int) ([]CodeMatch, int, error) {
	where := squirrel.And{squirrel.Eq{"p.deleted_at": nil}}
	if f.Query != "" {
		where = append(where, squirrel.Expr(`c.name_norm LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Query)+"%"))
	}
	if f.ProjectID != nil {
		where = append(where, squirrel.Eq{"c.project_id": *f.ProjectID})
	}
	from := builder.Select().From("codes c").Join("projects p ON p.id = c.project_id").Where(where)

	total, err := count(ctx, db, from.Columns("COUNT(*)"))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := from.Columns(
		"c.project_id", "c.ord", "c.guid", "c.name", "c.name_norm", "c.path",
		"c.depth", "c.codable", "c.color", "c.usage", "p.name", "p.path",
	).OrderBy("p.indexed_at DESC", "c.project_id", "c.ord").
		Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []CodeMatch
	for rows.Next() {
		var (
			m     CodeMatch
			color sql.NullString
		)
		if err := rows.Scan(
			&m.ProjectID, &m.Ord, &m.GUID, &m.Name, &m.NameNorm, &m.Path,
			&m.Depth, &m.Codable, &color, &m.Usage, &m.ProjectName, &m.ProjectPath,
		); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		m.Color = fromNullString(color)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

// ListSources returns the sources of one project in document order.
func ListSources(ctx context.Context, db *sql.DB, projectID string) ([]SourceRow, error) {
	query, args, err := builder.Select(
		"project_id", "ord", "guid", "kind", "name", "media_path", "selections", "codings",
	).From("sources").Where(squirrel.Eq{"project_id": projectID}).OrderBy("ord").ToSql()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var (
			s               SourceRow
			name, mediaPath sql.NullString
		)
		if err := rows.Scan(&s.ProjectID, &s.Ord, &s.GUID, &s.Kind, &name, &mediaPath, &s.Selections, &s.Codings); err != nil {
			return nil, errors.NewInternal(err)
		}
		s.Name = fromNullString(name)
		s.MediaPath = fromNullString(mediaPath)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// SoftDelete marks a project record as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	query, args, err := builder.Update("projects").
		Set("deleted_at", time.Now().Unix()).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).ToSql()
	if err != nil {
		return errors.NewInternal(err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted records and their rows.
// If olderThanDays is set, only records deleted before that cutoff go.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	where := squirrel.And{squirrel.NotEq{"deleted_at": nil}}
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		where = append(where, squirrel.Lt{"deleted_at": cutoff})
	}

	query, args, err := builder.Delete("projects").Where(where).ToSql()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, withSnapshot bool) (*ProjectRecord, error) {
	var (
		rec       ProjectRecord
		origin    sql.NullString
		deletedAt sql.NullInt64
	)
	dest := []any{
		&rec.ID, &rec.Path, &rec.Name, &rec.NameNorm, &origin, &rec.FileSize, &rec.Checksum,
		&rec.Codes, &rec.Sources, &rec.Selections, &rec.Codings, &rec.IndexedAt, &deletedAt,
	}
	if withSnapshot {
		dest = append(dest, &rec.Snapshot)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	rec.Origin = fromNullString(origin)
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.Int64
	}
	return &rec, nil
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func execBuilder(ctx context.Context, tx *sql.Tx, b sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

func count(ctx context.Context, db *sql.DB, b squirrel.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
