package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                        UUID PRIMARY KEY,
	email                     TEXT NOT NULL UNIQUE,
	username                  TEXT NOT NULL UNIQUE,
	full_name                 TEXT NOT NULL DEFAULT '',
	password_hash             TEXT NOT NULL,
	is_email_verified         BOOLEAN NOT NULL DEFAULT FALSE,
	email_verification_token  TEXT,
	email_verification_expiry TIMESTAMPTZ,
	forgot_password_token     TEXT,
	forgot_password_expiry    TIMESTAMPTZ,
	created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS users_email_verification_token_idx
	ON users (email_verification_token) WHERE email_verification_token IS NOT NULL;
CREATE INDEX IF NOT EXISTS users_forgot_password_token_idx
	ON users (forgot_password_token) WHERE forgot_password_token IS NOT NULL;

CREATE TABLE IF NOT EXISTS projects (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	admin_id    UUID NOT NULL REFERENCES users (id),
	notes       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS project_members (
	project_id UUID NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users (id),
	seq        BIGSERIAL,
	PRIMARY KEY (project_id, user_id)
);

CREATE INDEX IF NOT EXISTS project_members_user_idx ON project_members (user_id);

CREATE TABLE IF NOT EXISTS tasks (
	id          UUID PRIMARY KEY,
	project_id  UUID NOT NULL REFERENCES projects (id),
	position    BIGINT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'TODO' CHECK (status IN ('TODO', 'IN_PROGRESS', 'DONE')),
	assignee_id UUID REFERENCES users (id),
	subtasks    JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (project_id, position)
);
`
