package database

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type ShopController struct {
	db DB
}

func NewShopController(db DB) *ShopController {
	return &ShopController{db: db}
}

const shopColumns = `id, name, address, province, city, district, size, role, active, audit_status,
	last_login_time, created_at, updated_at`

func scanShop(row pgx.Row) (*model.Shop, error) {
	var s model.Shop
	err := row.Scan(&s.Id, &s.Name, &s.Address, &s.Province, &s.City, &s.District, &s.Size,
		&s.Role, &s.Active, &s.AuditStatus, &s.LastLoginTime, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (sc *ShopController) FindShops(ctx context.Context, page, pageSize int) ([]*model.Shop, int, error) {
	var total int
	if err := sc.db.QueryRow(ctx, "SELECT count(id) FROM shops").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := sc.db.Query(ctx,
		"SELECT "+shopColumns+" FROM shops ORDER BY id LIMIT $1 OFFSET $2", pageSize, (page-1)*pageSize)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var shops []*model.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			zap.S().Warnf("error scanning shop row: %s", err.Error())
			continue
		}
		shops = append(shops, s)
	}
	return shops, total, rows.Err()
}

func (sc *ShopController) FindShopById(ctx context.Context, id int64) (*model.Shop, error) {
	row := sc.db.QueryRow(ctx, "SELECT "+shopColumns+" FROM shops WHERE id = $1", id)
	return scanShop(row)
}

func (sc *ShopController) AddShop(ctx context.Context, s *model.Shop) error {
	sql := `INSERT INTO shops(name, address, province, city, district, size, role, active, audit_status)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`
	err := sc.db.QueryRow(ctx, sql, s.Name, s.Address, s.Province, s.City, s.District, s.Size,
		s.Role, s.Active, s.AuditStatus).Scan(&s.Id, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		zap.S().Errorf("error adding shop %s: %s", s.Name, err.Error())
	}
	return err
}

func (sc *ShopController) UpdateShop(ctx context.Context, s *model.Shop) error {
	sql := `UPDATE shops SET name=$1, address=$2, province=$3, city=$4, district=$5, size=$6,
		role=$7, active=$8, audit_status=$9, updated_at=now() WHERE id=$10`
	tag, err := sc.db.Exec(ctx, sql, s.Name, s.Address, s.Province, s.City, s.District, s.Size,
		s.Role, s.Active, s.AuditStatus, s.Id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (sc *ShopController) SetShopActive(ctx context.Context, id int64, active bool) error {
	tag, err := sc.db.Exec(ctx, "UPDATE shops SET active=$1, updated_at=now() WHERE id=$2", active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (sc *ShopController) DeleteShop(ctx context.Context, id int64) error {
	tag, err := sc.db.Exec(ctx, "DELETE FROM shops WHERE id=$1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
