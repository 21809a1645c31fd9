package sqlinline

// Provider API keys. One row per provider; properties hold rotation notes.

const QGetProviderKey = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7
select token, properties, updated_at
from integration_tokens
where provider = $1::text;
`

const QPutProviderKey = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
insert into integration_tokens (id, provider, token, properties)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update
set token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`

const QDeleteProviderKey = `--sql d2b94f7e-0a61-4c3d-9e85-7f1c6a0b3e29
delete from integration_tokens
where provider = $1::text;
`
