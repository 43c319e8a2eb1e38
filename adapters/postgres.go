package adapters

import "database/sql"

// PostgresSchema is the schema NewPostgresAdapter expects. It can be extended further.
const PostgresSchema = `
create table if not exists users (
    id text primary key,
    name text,
    email text not null unique,
    email_verified timestamptz,
    image text,
    phone text,
    role text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists accounts (
    id text primary key,
    user_id text not null references users(id) on delete cascade on update cascade,

    type text not null,
    provider text not null,
    provider_account_id text not null,

    refresh_token text,
    access_token text,
    expires_at bigint,
    token_type text,
    scope text,
    id_token text,
    session_state text,

    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now(),

    unique (provider, provider_account_id)
);

create table if not exists sessions (
    id text primary key,
    session_token text not null unique,
    user_id text not null references users(id) on delete cascade on update cascade,
    expires timestamptz not null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists verification_tokens (
    id text primary key,
    identifier text not null,
    token text not null,
    expires timestamptz not null,

    unique (identifier, token)
);
`

// NewPostgresAdapter returns an adapter for a Postgres database opened with
// any database/sql driver that uses $n placeholders, such as lib/pq.
func NewPostgresAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, numbered: true}
}
