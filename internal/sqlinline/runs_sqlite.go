package sqlinline

// SQLite variants of the run history statements. Timestamps are fixed-width UTC text.

const QSQLiteEnsureSchema = `--sql 5e7a2c91-3d4b-4f80-b6a1-0c9e8d27f314
create table if not exists campaign_runs (
  id text primary key,
  context text not null,
  has_reference integer not null default 0,
  locale text not null default 'en',
  backend text not null,
  status text not null,
  style_seed text not null default '',
  created_at text not null,
  finished_at text
);
create table if not exists platform_renders (
  id text primary key,
  run_id text references campaign_runs(id) on delete cascade,
  platform text not null,
  status text not null,
  prompt text not null,
  mime text not null default '',
  bytes integer not null default 0,
  duration_ms integer not null default 0,
  created_at text not null
);
create index if not exists platform_renders_run_idx on platform_renders(run_id, created_at);
`

const QSQLiteInsertRun = `--sql a41f9d06-7c2e-4b85-9e13-d6b08f4c2a7e
insert into campaign_runs (id, context, has_reference, locale, backend, status, created_at)
values (?, ?, ?, ?, ?, 'running', ?);
`

const QSQLiteFinishRun = `--sql e83b5f2a-1c90-4d67-a4e8-7b2d9c0f5e13
update campaign_runs
set status = ?, style_seed = ?, finished_at = ?
where id = ?;
`

const QSQLiteInsertRender = `--sql 6c0d8e4f-a2b7-4193-8f5c-e1a97d3b6024
insert into platform_renders (id, run_id, platform, status, prompt, mime, bytes, duration_ms, created_at)
values (?, nullif(?, ''), ?, ?, ?, ?, ?, ?, ?);
`

const QSQLiteListRuns = `--sql 1b9e7a3c-5f24-4d08-b3c6-a8e2f0d94715
select id, context, has_reference, locale, backend, status, style_seed, created_at, coalesce(finished_at, '')
from campaign_runs
order by created_at desc
limit ?;
`

const QSQLiteListRendersByRun = `--sql f7c24a81-9e3d-45b6-8a0f-2d6c1e9b7350
select platform, status, prompt, mime, bytes, duration_ms, created_at
from platform_renders
where run_id = ?
order by created_at asc;
`
