package store

import (
	"context"
	"errors"
	"fmt"
	"projectcamp/models"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
)

const (
	dialectPostgres = "postgres"
	queryTimeout    = 10 * time.Second

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const (
	userColumns = `id, email, username, full_name, password_hash, is_email_verified,
		COALESCE(email_verification_token, ''), email_verification_expiry,
		COALESCE(forgot_password_token, ''), forgot_password_expiry, created_at, updated_at`

	projectColumns = `id, name, description, admin_id, notes, created_at, updated_at`

	taskColumns = `id, project_id, title, description, status, assignee_id, subtasks, created_at, updated_at`
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// inTx runs fn in a transaction bounded by queryTimeout. fn must use the ctx
// it is given.
func (s *Postgres) inTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// wrapErr maps driver failures onto the package sentinels.
func wrapErr(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s (%s): %w", what, pgErr.ConstraintName, ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s (%s): %w", what, pgErr.ConstraintName, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// === Users ===

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.IsEmailVerified,
		&u.EmailVerificationToken, &u.EmailVerificationExpiry,
		&u.ForgotPasswordToken, &u.ForgotPasswordExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := `INSERT INTO users (id, email, username, full_name, password_hash, is_email_verified,
		email_verification_token, email_verification_expiry, forgot_password_token, forgot_password_expiry,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11, $12)`
	_, err := s.pool.Exec(ctx, stmt,
		user.ID, user.Email, user.Username, user.FullName, user.PasswordHash, user.IsEmailVerified,
		user.EmailVerificationToken, user.EmailVerificationExpiry,
		user.ForgotPasswordToken, user.ForgotPasswordExpiry,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return wrapErr("creating user", err)
	}
	return nil
}

func (s *Postgres) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := `UPDATE users SET email = $2, username = $3, full_name = $4, password_hash = $5,
		is_email_verified = $6, email_verification_token = NULLIF($7, ''), email_verification_expiry = $8,
		forgot_password_token = NULLIF($9, ''), forgot_password_expiry = $10, updated_at = NOW()
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, stmt,
		user.ID, user.Email, user.Username, user.FullName, user.PasswordHash, user.IsEmailVerified,
		user.EmailVerificationToken, user.EmailVerificationExpiry,
		user.ForgotPasswordToken, user.ForgotPasswordExpiry,
	)
	if err != nil {
		return wrapErr("updating user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

func (s *Postgres) getUserBy(ctx context.Context, column string, value any) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := goqu.Dialect(dialectPostgres).
		From("users").
		Prepared(true).
		Select(goqu.L(userColumns)).
		Where(goqu.C(column).Eq(value)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapErr("user by "+column, err)
	}
	return u, nil
}

func (s *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUserBy(ctx, "id", id)
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUserBy(ctx, "username", username)
}

func (s *Postgres) GetUserByVerificationToken(ctx context.Context, hashedToken string) (*models.User, error) {
	return s.getUserBy(ctx, "email_verification_token", hashedToken)
}

func (s *Postgres) GetUserByResetToken(ctx context.Context, hashedToken string) (*models.User, error) {
	return s.getUserBy(ctx, "forgot_password_token", hashedToken)
}

func (s *Postgres) GetPublicUsers(ctx context.Context, ids []string) ([]models.PublicUser, error) {
	if len(ids) == 0 {
		return []models.PublicUser{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, username, email FROM users WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, wrapErr("querying users", err)
	}
	defer rows.Close()

	byID := make(map[string]models.PublicUser, len(ids))
	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	out := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// === Projects ===

func scanProject(row pgx.Row) (*models.Project, error) {
	p := &models.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.AdminID, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// loadRefs fills Members (join order) and Tasks (position order) for each project.
func loadRefs(ctx context.Context, q querier, projects []*models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	byID := make(map[string]*models.Project, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		p.Members = []string{}
		p.Tasks = []string{}
		byID[p.ID] = p
	}

	load := func(stmt string, add func(p *models.Project, ref string)) error {
		rows, err := q.Query(ctx, stmt, ids)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var projectID, ref string
			if err := rows.Scan(&projectID, &ref); err != nil {
				return err
			}
			if p, ok := byID[projectID]; ok {
				add(p, ref)
			}
		}
		return rows.Err()
	}

	err := load(`SELECT project_id, user_id FROM project_members WHERE project_id = ANY($1::uuid[]) ORDER BY seq`,
		func(p *models.Project, ref string) { p.Members = append(p.Members, ref) })
	if err != nil {
		return fmt.Errorf("loading members: %w", err)
	}
	err = load(`SELECT project_id, id FROM tasks WHERE project_id = ANY($1::uuid[]) ORDER BY position`,
		func(p *models.Project, ref string) { p.Tasks = append(p.Tasks, ref) })
	if err != nil {
		return fmt.Errorf("loading task ids: %w", err)
	}
	return nil
}

func (s *Postgres) CreateProject(ctx context.Context, project *models.Project) error {
	err := s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO projects (id, name, description, admin_id, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			project.ID, project.Name, project.Description, project.AdminID, project.Notes,
			project.CreatedAt, project.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`,
			project.ID, project.AdminID)
		return err
	})
	if err != nil {
		return wrapErr("creating project", err)
	}
	project.Members = []string{project.AdminID}
	project.Tasks = []string{}
	return nil
}

func (s *Postgres) GetProject(ctx context.Context, id string) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("project "+id, err)
	}
	if err := loadRefs(ctx, s.pool, []*models.Project{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Postgres) ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	builder := goqu.Dialect(dialectPostgres)
	memberOf := builder.
		From("project_members").
		Select("project_id").
		Where(goqu.C("user_id").Eq(userID))

	query, args, err := builder.
		From("projects").
		Prepared(true).
		Select(goqu.L(projectColumns)).
		Where(goqu.Or(
			goqu.C("admin_id").Eq(userID),
			goqu.C("id").In(memberOf),
		)).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building project list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("listing projects", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	rows.Close()

	if err := loadRefs(ctx, s.pool, projects); err != nil {
		return nil, err
	}

	out := make([]models.Project, len(projects))
	for i, p := range projects {
		out[i] = *p
	}
	return out, nil
}

func (s *Postgres) UpdateProject(ctx context.Context, id string, update models.ProjectUpdate) (*models.Project, error) {
	rec := goqu.Record{"updated_at": goqu.L("NOW()")}
	if update.Name != nil {
		rec["name"] = *update.Name
	}
	if update.Description != nil {
		rec["description"] = *update.Description
	}

	query, args, err := goqu.Dialect(dialectPostgres).
		Update("projects").
		Prepared(true).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building project update: %w", err)
	}

	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var updatedID string
	if err := s.pool.QueryRow(qctx, query, args...).Scan(&updatedID); err != nil {
		return nil, wrapErr("updating project "+id, err)
	}
	return s.GetProject(ctx, updatedID)
}

// lockProject takes a row lock on the project for the rest of tx.
func lockProject(ctx context.Context, tx pgx.Tx, id string) error {
	var locked string
	err := tx.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return wrapErr("project "+id, err)
	}
	return nil
}

func (s *Postgres) AddMember(ctx context.Context, projectID, userID string) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockProject(ctx, tx, projectID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)
			ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID)
		if err != nil {
			return wrapErr("adding member", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, projectID)
		return err
	})
}

func (s *Postgres) UpdateNotes(ctx context.Context, projectID, notes string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var saved string
	err := s.pool.QueryRow(ctx, `UPDATE projects SET notes = $2, updated_at = NOW() WHERE id = $1 RETURNING notes`,
		projectID, notes).Scan(&saved)
	if err != nil {
		return "", wrapErr("updating notes", err)
	}
	return saved, nil
}

func (s *Postgres) DeleteProject(ctx context.Context, id string) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockProject(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
			return wrapErr("deleting project tasks", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
			return wrapErr("deleting project", err)
		}
		return nil
	})
}

// === Tasks ===

func scanTask(row pgx.Row) (*models.Task, error) {
	t := &models.Task{}
	var (
		status   string
		subtasks []byte
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.AssigneeID,
		&subtasks, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
		return nil, fmt.Errorf("decoding subtasks of task %s: %w", t.ID, err)
	}
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}
	return t, nil
}

func (s *Postgres) CreateTask(ctx context.Context, task *models.Task) error {
	subtasks, err := json.Marshal(task.Subtasks)
	if err != nil {
		return fmt.Errorf("encoding subtasks: %w", err)
	}
	if task.Subtasks == nil {
		subtasks = []byte("[]")
	}

	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// The lock serialises position allocation within the project.
		if err := lockProject(ctx, tx, task.ProjectID); err != nil {
			return err
		}
		var position int64
		err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE project_id = $1`,
			task.ProjectID).Scan(&position)
		if err != nil {
			return wrapErr("allocating task position", err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO tasks (id, project_id, position, title, description, status,
			assignee_id, subtasks, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			task.ID, task.ProjectID, position, task.Title, task.Description, string(task.Status),
			task.AssigneeID, subtasks, task.CreatedAt, task.UpdatedAt)
		if err != nil {
			return wrapErr("creating task", err)
		}
		_, err = tx.Exec(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, task.ProjectID)
		return err
	})
}

func (s *Postgres) GetTask(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("task "+id, err)
	}
	return t, nil
}

func (s *Postgres) ListTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY position`, projectID)
	if err != nil {
		return nil, wrapErr("listing tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (s *Postgres) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		id, string(status)))
	if err != nil {
		return nil, wrapErr("updating task status", err)
	}
	return t, nil
}

func (s *Postgres) DeleteTask(ctx context.Context, id string) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var projectID string
		err := tx.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&projectID)
		if err != nil {
			return wrapErr("task "+id, err)
		}
		// The project's task list is the ordered set of task rows, so removing
		// the row also removes the reference.
		if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return wrapErr("deleting task", err)
		}
		_, err = tx.Exec(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, projectID)
		return err
	})
}

func (s *Postgres) AddSubtask(ctx context.Context, taskID string, subtask models.Subtask) (*models.Task, error) {
	appended, err := json.Marshal([]models.Subtask{subtask})
	if err != nil {
		return nil, fmt.Errorf("encoding subtask: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE tasks SET subtasks = subtasks || $2::jsonb, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		taskID, appended))
	if err != nil {
		return nil, wrapErr("adding subtask", err)
	}
	return t, nil
}

func (s *Postgres) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (*models.Task, error) {
	var updated *models.Task
	err := s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID))
		if err != nil {
			return wrapErr("task "+taskID, err)
		}
		st := t.Subtask(subtaskID)
		if st == nil {
			return fmt.Errorf("task %s: %w", taskID, ErrSubtaskNotFound)
		}
		st.IsCompleted = !st.IsCompleted

		encoded, err := json.Marshal(t.Subtasks)
		if err != nil {
			return fmt.Errorf("encoding subtasks: %w", err)
		}
		updated, err = scanTask(tx.QueryRow(ctx,
			`UPDATE tasks SET subtasks = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
			taskID, encoded))
		if err != nil {
			return wrapErr("toggling subtask", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
