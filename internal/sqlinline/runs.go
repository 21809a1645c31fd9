package sqlinline

const QInsertRun = `--sql 0b6d4e8a-51c3-4f7e-9a2d-c83e1f05a6b7
insert into campaign_runs (id, context, has_reference, locale, backend, status, created_at)
values ($1::uuid, $2::text, $3::boolean, $4::text, $5::text, 'running', now());
`

const QFinishRun = `--sql 7e42a9c1-08d5-4b3f-a6e9-2f51c7d48b0e
update campaign_runs
set status = $2::text,
    style_seed = nullif($3::text, ''),
    finished_at = now()
where id = $1::uuid;
`

const QInsertRender = `--sql c5a8f3d2-6e1b-47a9-b0c4-91d7e2f36a58
insert into platform_renders (id, run_id, platform, status, prompt, mime, bytes, duration_ms, created_at)
values (
  gen_random_uuid(),
  nullif($1::text, '')::uuid,
  $2::text,
  $3::text,
  $4::text,
  nullif($5::text, ''),
  $6::bigint,
  $7::bigint,
  now()
);
`

const QListRuns = `--sql 9d3b7c60-f2a4-4e18-85cb-4a6e0d1f97c2
select id::text, context, has_reference, locale, backend, status, coalesce(style_seed, ''), created_at, finished_at
from campaign_runs
order by created_at desc
limit $1::int;
`

const QListRendersByRun = `--sql 2f8e1a4b-c7d6-4953-b08a-5e3c9f7d21a4
select platform, status, prompt, coalesce(mime, ''), bytes, duration_ms, created_at
from platform_renders
where run_id = $1::uuid
order by created_at asc;
`
