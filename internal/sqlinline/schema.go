package sqlinline

// QEnsureSchema creates the history and credential tables when missing.
const QEnsureSchema = `--sql 3c1f6a2e-9b47-4d0a-8f51-6e2d7c94b3a8
create table if not exists integration_tokens (
  id uuid primary key,
  provider text not null unique,
  token text not null,
  properties jsonb not null default '{}'::jsonb,
  created_at timestamptz not null default now(),
  updated_at timestamptz not null default now()
);
create table if not exists campaign_runs (
  id uuid primary key,
  context text not null,
  has_reference boolean not null default false,
  locale text not null default 'en',
  backend text not null,
  status text not null,
  style_seed text,
  created_at timestamptz not null default now(),
  finished_at timestamptz
);
create table if not exists platform_renders (
  id uuid primary key,
  run_id uuid references campaign_runs(id) on delete cascade,
  platform text not null,
  status text not null,
  prompt text not null,
  mime text,
  bytes bigint not null default 0,
  duration_ms bigint not null default 0,
  created_at timestamptz not null default now()
);
create index if not exists platform_renders_run_idx on platform_renders(run_id, created_at);
`
