package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/fwforge/fwportal/internal/model"
	"github.com/fwforge/fwportal/internal/pkg/dbutil"
	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
)

var firmwareColumns = []string{"id", "name", "version", "channel", "checksum", "size", "file_key", "release_notes", "uploaded_by", "ctime", "mtime"}

type FirmwareRepo struct {
	db *sql.DB
}

func NewFirmwareRepo(db *sql.DB) *FirmwareRepo {
	return &FirmwareRepo{db: db}
}

func (r *FirmwareRepo) Create(ctx context.Context, fw *model.FirmwareArtifact) error {
	data := map[string]interface{}{
		"id":            fw.ID,
		"name":          fw.Name,
		"version":       fw.Version,
		"channel":       fw.Channel,
		"checksum":      fw.Checksum,
		"size":          fw.Size,
		"file_key":      fw.FileKey,
		"release_notes": fw.ReleaseNotes,
		"uploaded_by":   fw.UploadedBy,
		"ctime":         fw.Ctime,
		"mtime":         fw.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("firmware_artifacts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *FirmwareRepo) GetByID(ctx context.Context, id string) (*model.FirmwareArtifact, error) {
	where := map[string]interface{}{"id": id, "_limit": []uint{0, 1}}
	return r.queryOne(ctx, where)
}

func (r *FirmwareRepo) List(ctx context.Context, channel string) ([]*model.FirmwareArtifact, error) {
	where := map[string]interface{}{"_orderby": "ctime desc"}
	if channel != "" {
		where["channel"] = channel
	}
	sqlStr, args, err := builder.BuildSelect("firmware_artifacts", where, firmwareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []*model.FirmwareArtifact
	for rows.Next() {
		fw, err := scanFirmware(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, fw)
	}
	return items, rows.Err()
}

func (r *FirmwareRepo) Update(ctx context.Context, id string, update map[string]interface{}) error {
	if len(update) == 0 {
		return nil
	}
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildUpdate("firmware_artifacts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *FirmwareRepo) Delete(ctx context.Context, id string) error {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildDelete("firmware_artifacts", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *FirmwareRepo) queryOne(ctx context.Context, where map[string]interface{}) (*model.FirmwareArtifact, error) {
	sqlStr, args, err := builder.BuildSelect("firmware_artifacts", where, firmwareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanFirmware(rows)
}

func scanFirmware(rows *sql.Rows) (*model.FirmwareArtifact, error) {
	var fw model.FirmwareArtifact
	if err := rows.Scan(&fw.ID, &fw.Name, &fw.Version, &fw.Channel, &fw.Checksum, &fw.Size, &fw.FileKey, &fw.ReleaseNotes, &fw.UploadedBy, &fw.Ctime, &fw.Mtime); err != nil {
		return nil, err
	}
	return &fw, nil
}
