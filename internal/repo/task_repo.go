package repo

import (
	"context"
	"fmt"
	"strings"

	dom "tasklist/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskFilter restricts a List/Count query. UserID is always required: every
// query is scoped to the owner, so another user's tasks can never leak into
// a result set.
type TaskFilter struct {
	UserID      int64
	IsCompleted *bool  // nil = no status filter
	Search      string // case-insensitive substring over title; empty = no filter
	Sort        string // "createdAt" or "title", optional "-" prefix for descending
	Offset      int
	Limit       int
}

type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	List(ctx context.Context, f TaskFilter) ([]dom.Task, error)
	Count(ctx context.Context, f TaskFilter) (int64, error)
	// SetCompleted updates the completion flag where both id and owner
	// match, in one statement. pgx.ErrNoRows when nothing matched.
	SetCompleted(ctx context.Context, userID, id int64, completed bool) (dom.Task, error)
	// Delete removes the task where both id and owner match.
	// pgx.ErrNoRows when nothing matched.
	Delete(ctx context.Context, userID, id int64) error
}

type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, is_completed, created_at, updated_at`
	var out dom.Task
	err := r.db.QueryRow(ctx, query, t.UserID, t.Title).Scan(
		&out.ID, &out.UserID, &out.Title, &out.IsCompleted, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func (r *PGTaskRepo) List(ctx context.Context, f TaskFilter) ([]dom.Task, error) {
	where, args := buildWhere(f)
	query := fmt.Sprintf(`
		SELECT id, user_id, title, is_completed, created_at, updated_at
		FROM tasks %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy(f.Sort), len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Task
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.IsCompleted,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Count ignores Offset/Limit: the total reflects the whole filtered set.
func (r *PGTaskRepo) Count(ctx context.Context, f TaskFilter) (int64, error) {
	where, args := buildWhere(f)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks `+where, args...).Scan(&total)
	return total, err
}

func (r *PGTaskRepo) SetCompleted(ctx context.Context, userID, id int64, completed bool) (dom.Task, error) {
	query := `
		UPDATE tasks SET is_completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, is_completed, created_at, updated_at`
	var t dom.Task
	err := r.db.QueryRow(ctx, query, id, userID, completed).Scan(
		&t.ID, &t.UserID, &t.Title, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func buildWhere(f TaskFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}
	if f.IsCompleted != nil {
		args = append(args, *f.IsCompleted)
		conds = append(conds, fmt.Sprintf("is_completed = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// orderBy maps the public sort name onto a column. Anything outside the
// whitelist falls back to newest-first; user input never reaches the SQL text.
func orderBy(sort string) string {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	switch sort {
	case "createdAt":
		return "created_at " + dir + ", id " + dir
	case "title":
		return "title " + dir + ", id " + dir
	default:
		return "created_at DESC, id DESC"
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
