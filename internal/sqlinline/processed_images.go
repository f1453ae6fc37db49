package sqlinline

const QInsertProcessedImage = `--sql fddba499-8907-4e71-ab57-e768baa2ea74
insert into processed_images(
  id, user_id, filename, original_filename, style, engine,
  width, height, camera_make, camera_model, country, created_at
)
values (
  $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text,
  $7::int, $8::int, nullif($9::text, ''), nullif($10::text, ''), nullif($11::text, ''), now()
)
returning created_at;
`

const QListProcessedImagesByUser = `--sql becb199a-3434-4fb7-bb4b-034292e9981b
select
  id::text, user_id, filename, original_filename, style, engine,
  width, height, coalesce(camera_make, ''), coalesce(camera_model, ''), coalesce(country, ''), created_at
from processed_images
where user_id = $1::text
order by created_at desc
limit $2::int offset $3::int;
`

const QSelectProcessedImage = `--sql 1ff26139-df6b-4572-93b7-be764350d8da
select
  id::text, user_id, filename, original_filename, style, engine,
  width, height, coalesce(camera_make, ''), coalesce(camera_model, ''), coalesce(country, ''), created_at
from processed_images
where id = $1::uuid
  and user_id = $2::text;
`
