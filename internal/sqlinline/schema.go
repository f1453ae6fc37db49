package sqlinline

// QSchema creates the tables the service reads and writes. It is applied by
// `styleai migrate`.
const QSchema = `--sql 58cb40bd-d38d-4fb0-bc37-48b35878a91f
create table if not exists processed_images (
  id                uuid primary key,
  user_id           text not null,
  filename          text not null,
  original_filename text not null,
  style             text not null,
  engine            text not null,
  width             int not null,
  height            int not null,
  camera_make       text,
  camera_model      text,
  country           text,
  created_at        timestamptz not null default now()
);
create index if not exists processed_images_user_created_idx on processed_images (user_id, created_at desc);

create table if not exists saved_prompts (
  id          uuid primary key,
  user_id     text not null,
  title       text not null,
  prompt_text text not null,
  style_type  text not null default 'custom',
  is_favorite boolean not null default false,
  created_at  timestamptz not null default now(),
  updated_at  timestamptz not null default now()
);
create index if not exists saved_prompts_user_idx on saved_prompts (user_id);

create table if not exists usage_events (
  id          uuid primary key,
  user_id     text not null,
  request_id  text,
  event_type  text not null,
  success     boolean not null,
  latency_ms  int not null,
  created_at  timestamptz not null default now(),
  properties  jsonb not null default '{}'::jsonb
);

create table if not exists integration_tokens (
  id         uuid primary key,
  provider   text not null unique,
  token      text not null,
  properties jsonb not null default '{}'::jsonb,
  created_at timestamptz not null default now(),
  updated_at timestamptz not null default now()
);
`
