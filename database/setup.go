package database

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//SetupSchema creates the required tables if they don't exist
func SetupSchema(db DB) error {

	ctx := context.Background()

	createSql := `CREATE TABLE IF NOT EXISTS users(
	id bigserial primary key,
	username varchar(50) unique not null,
	password varchar(255) not null,
	email varchar(100) unique not null,
	phone varchar(20) default '',
	permission int default 1,
	role varchar(20) default 'user',
	active boolean default true,
	last_login_time timestamptz,
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE TABLE IF NOT EXISTS government_users(
	id bigserial primary key,
	username varchar(50) unique not null,
	password varchar(255) not null,
	email varchar(100) unique not null,
	phone varchar(20) default '',
	department varchar(100) not null,
	position varchar(100) default '',
	permissions jsonb default '{}',
	role varchar(20) default 'officer',
	active boolean default true,
	last_login_time timestamptz,
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE TABLE IF NOT EXISTS image_storage(
	id bigserial primary key,
	filename varchar(255) not null,
	file_data bytea not null,
	file_size bigint not null,
	mime_type varchar(100) not null,
	image_type varchar(20) not null,
	created_by bigint references users(id),
	created_at timestamptz default now());
CREATE TABLE IF NOT EXISTS panoramas(
	id bigserial primary key,
	panorama_image_id bigint not null references image_storage(id),
	thumbnail_image_id bigint not null references image_storage(id),
	description text default '',
	shoot_time timestamptz not null,
	longitude double precision,
	latitude double precision,
	status varchar(20) default 'pending',
	image_metadata jsonb default '{}',
	created_by bigint references users(id),
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE TABLE IF NOT EXISTS locations(
	id bigserial primary key,
	name varchar(100) not null,
	longitude double precision not null,
	latitude double precision not null,
	rating double precision default 0,
	category varchar(50) default '',
	description text default '',
	address text default '',
	panorama_id bigint references panoramas(id),
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE TABLE IF NOT EXISTS panorama_preview_images(
	id bigserial primary key,
	panorama_id bigint not null references panoramas(id),
	preview_image_id bigint not null references image_storage(id),
	sort_order int default 0,
	created_at timestamptz default now());
CREATE TABLE IF NOT EXISTS time_machine_data(
	id varchar(50) primary key,
	location_id bigint not null references locations(id),
	panorama_id bigint not null references panoramas(id),
	year int not null,
	month int not null,
	label varchar(100) not null,
	description text default '',
	address text default '',
	image_ids jsonb default '[]',
	created_at timestamptz default now());
CREATE TABLE IF NOT EXISTS law_enforcement_tasks(
	id bigserial primary key,
	task_code varchar(50) unique not null,
	title varchar(200) not null,
	description text not null,
	task_type varchar(50) not null,
	priority varchar(20) default 'medium',
	status varchar(20) default 'pending',
	longitude double precision not null,
	latitude double precision not null,
	address text default '',
	assigned_to bigint references government_users(id),
	assigned_by bigint references government_users(id),
	deadline timestamptz,
	completion_time timestamptz,
	attachments jsonb default '[]',
	remarks text default '',
	created_by bigint references government_users(id),
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE TABLE IF NOT EXISTS task_history(
	id bigserial primary key,
	task_id bigint not null references law_enforcement_tasks(id),
	action varchar(100) not null,
	description text not null,
	performed_by bigint not null references government_users(id),
	performed_at timestamptz default now(),
	old_status varchar(50) default '',
	new_status varchar(50) default '');
CREATE TABLE IF NOT EXISTS task_comments(
	id bigserial primary key,
	task_id bigint not null references law_enforcement_tasks(id),
	content text not null,
	comment_type varchar(20) default 'comment',
	created_by bigint not null references government_users(id),
	created_at timestamptz default now(),
	attachments jsonb default '[]');
CREATE TABLE IF NOT EXISTS shops(
	id bigserial primary key,
	name varchar(50) unique not null,
	address varchar(100) default '',
	province varchar(50) default '',
	city varchar(50) default '',
	district varchar(50) default '',
	size varchar(20) default 'small',
	role varchar(20) default 'admin',
	active boolean default true,
	audit_status varchar(20) default 'pending',
	last_login_time timestamptz,
	created_at timestamptz default now(),
	updated_at timestamptz default now());
CREATE INDEX IF NOT EXISTS idx_locations_coords ON locations(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON law_enforcement_tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_coords ON law_enforcement_tasks(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_task_history_task ON task_history(task_id);
`
	_, err := db.Exec(ctx, createSql)
	if err != nil {
		return errors.Wrap(err, "unable to create tables")
	}
	return nil
}

//DeleteSchema cleans up the tables and data - useful for testing but not exposed to web
func DeleteSchema(db DB) error {
	dropTables := `drop table if exists task_comments, task_history, law_enforcement_tasks,
	time_machine_data, panorama_preview_images, locations, panoramas,
	image_storage, shops, government_users, users cascade;`
	_, err := db.Exec(context.Background(), dropTables)
	return err
}

//Seed inserts the fixed initial users and government officers. It is guarded
//by the users table: any existing row means a prior run finished, so Seed
//performs no writes and reports skipped=true.
func Seed(ctx context.Context, db DB) (skipped bool, err error) {

	var count int
	if err := db.QueryRow(ctx, "SELECT count(id) FROM users").Scan(&count); err != nil {
		return false, errors.Wrap(err, "unable to check users table")
	}
	if count > 0 {
		zap.L().Info("users table already populated, skipping seed")
		return true, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	userSql := "INSERT INTO users(username, password, email, phone, permission, role, active) VALUES($1,$2,$3,$4,$5,$6,$7)"
	users := []struct {
		name, password, email, phone string
		permission                   int
		role                         string
	}{
		{"admin", "123456", "admin@example.com", "13800000001", 0, "admin"},
		{"user", "123456", "user@example.com", "13800000000", 1, "user"},
		{"advanced", "123456", "advanced@example.com", "13800000000", 2, "advanced"},
	}
	for _, u := range users {
		if _, err := tx.Exec(ctx, userSql, u.name, u.password, u.email, u.phone, u.permission, u.role, true); err != nil {
			return false, errors.Wrap(err, "seeding users")
		}
	}

	govSql := "INSERT INTO government_users(username, password, email, phone, department, position, permissions, role, active) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)"
	officers := []struct {
		name, email, phone, department, position, role string
		permissions                                    string
	}{
		{"gov_admin", "gov_admin@example.com", "13800000001", "City Appearance Bureau", "Director",
			"admin", `{"panorama_view":true,"task_create":true,"task_assign":true,"task_manage":true,"user_manage":true}`},
		{"gov_supervisor", "gov_supervisor@example.com", "13800000002", "Sanitation Division", "Head",
			"supervisor", `{"panorama_view":true,"task_create":true,"task_assign":true,"task_manage":true}`},
		{"gov_officer", "gov_officer@example.com", "13800000003", "Municipal Administration", "Officer",
			"officer", `{"panorama_view":true,"task_create":true,"task_execute":true}`},
		{"gov_inspector", "gov_inspector@example.com", "13800000004", "Traffic Administration", "Inspector",
			"officer", `{"panorama_view":true,"task_create":true,"task_execute":true}`},
	}
	for _, o := range officers {
		if _, err := tx.Exec(ctx, govSql, o.name, "123456", o.email, o.phone, o.department, o.position, []byte(o.permissions), o.role, true); err != nil {
			return false, errors.Wrap(err, "seeding government users")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	zap.L().Info("seeded initial users", zap.Int("users", len(users)), zap.Int("officers", len(officers)))
	return false, nil
}
