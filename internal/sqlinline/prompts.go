package sqlinline

const QInsertSavedPrompt = `--sql ff28901a-a2d4-4ab2-b4be-ec3b8862b70f
insert into saved_prompts(id, user_id, title, prompt_text, style_type, is_favorite, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::boolean, now(), now())
returning created_at, updated_at;
`

const QListSavedPromptsByUser = `--sql d6ec41a6-e5ad-4797-bd0e-4d3cd28e5182
select id::text, user_id, title, prompt_text, style_type, is_favorite, created_at, updated_at
from saved_prompts
where user_id = $1::text
order by is_favorite desc, created_at desc;
`

const QSelectSavedPrompt = `--sql c79fbc6b-9b30-4b62-98ce-5b78ab00b8b5
select id::text, user_id, title, prompt_text, style_type, is_favorite, created_at, updated_at
from saved_prompts
where id = $1::uuid
  and user_id = $2::text;
`

const QUpdateSavedPrompt = `--sql d6f5345a-eb61-4aca-8e60-07d8f551a86e
update saved_prompts
set title = $3::text,
    prompt_text = $4::text,
    style_type = $5::text,
    is_favorite = $6::boolean,
    updated_at = now()
where id = $1::uuid
  and user_id = $2::text
returning updated_at;
`

const QDeleteSavedPrompt = `--sql 7daeb046-79dd-4e19-af6d-d8c99cd0841e
delete from saved_prompts
where id = $1::uuid
  and user_id = $2::text;
`
