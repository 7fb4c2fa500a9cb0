package rqliterarestore

import (
	"context"
	"encoding/json"
	"fmt"
	"rare-achievements/cmd/rare-achievements/rarestore"
	"time"

	"github.com/rqlite/gorqlite"
)

type DB struct {
	conn *gorqlite.Connection
}

func New(addr string) (*DB, error) {
	conn, err := gorqlite.Open(addr)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	if err := conn.SetExecutionWithTransaction(true); err != nil {
		return nil, fmt.Errorf("set execution with transaction: %w", err)
	}

	db := &DB{
		conn: conn,
	}

	return db, nil
}

func (db *DB) Close() {
	db.conn.Close()
}

func globalKey(appID uint32) string {
	return fmt.Sprintf("global:%d", appID)
}

func metaKey(appID uint32) string {
	return fmt.Sprintf("meta:%d", appID)
}

func (db *DB) put(ctx context.Context, key string, value any, updated time.Time) error {
	const q = `
INSERT INTO kv (key, value, updated)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
updated = excluded.updated,
value = excluded.value;
`

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	param := gorqlite.ParameterizedStatement{
		Query:     q,
		Arguments: []any{key, string(b), updated.UnixMilli()},
	}

	result, err := db.conn.WriteOneParameterizedContext(ctx, param)
	if err != nil {
		return fmt.Errorf("do query: %w: %w", err, result.Err)
	}

	return nil
}

func (db *DB) get(ctx context.Context, key string, value any) (time.Time, bool, error) {
	var t time.Time

	const query = "SELECT value, updated FROM kv WHERE key = ?;"
	param := gorqlite.ParameterizedStatement{
		Query:     query,
		Arguments: []any{key},
	}

	results, err := db.conn.QueryOneParameterizedContext(ctx, param)
	if err != nil {
		return t, false, fmt.Errorf("do query: %w", err)
	}

	if results.NumRows() == 0 {
		return t, false, nil
	}

	var (
		data    string
		updated int64
	)

	for results.Next() {
		if err := results.Scan(&data, &updated); err != nil {
			return t, false, fmt.Errorf("scan results: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(data), value); err != nil {
		return t, false, fmt.Errorf("unmarshal data: %w", err)
	}

	return time.UnixMilli(updated), true, nil
}

func (db *DB) GetGlobalPercentages(ctx context.Context, appID uint32) (*rarestore.GlobalPercentages, bool, error) {
	var percentages map[string]float64

	updated, ok, err := db.get(ctx, globalKey(appID), &percentages)
	if err != nil || !ok {
		return nil, ok, err
	}

	if percentages == nil {
		percentages = map[string]float64{}
	}

	gp := &rarestore.GlobalPercentages{
		Updated:     updated,
		Percentages: percentages,
	}

	return gp, true, nil
}

func (db *DB) InsertGlobalPercentages(ctx context.Context, appID uint32, gp *rarestore.GlobalPercentages) error {
	return db.put(ctx, globalKey(appID), gp.Percentages, gp.Updated)
}

type appMetaValue struct {
	Title  string          `json:"title"`
	Schema json.RawMessage `json:"schema"`
}

func (db *DB) GetAppMeta(ctx context.Context, appID uint32) (*rarestore.AppMeta, bool, error) {
	var v appMetaValue

	updated, ok, err := db.get(ctx, metaKey(appID), &v)
	if err != nil || !ok {
		return nil, ok, err
	}

	meta := &rarestore.AppMeta{
		Updated: updated,
		Title:   v.Title,
	}

	if err := json.Unmarshal(v.Schema, &meta.Schema); err != nil {
		return nil, false, fmt.Errorf("unmarshal schema: %w", err)
	}

	return meta, true, nil
}

func (db *DB) InsertAppMeta(ctx context.Context, appID uint32, meta *rarestore.AppMeta) error {
	schema, err := json.Marshal(meta.Schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	v := appMetaValue{
		Title:  meta.Title,
		Schema: schema,
	}

	return db.put(ctx, metaKey(appID), v, meta.Updated)
}

func (db *DB) CreateSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS kv (
	key     TEXT     NOT NULL,
	updated INTEGER  NOT NULL,
	value   TEXT     NOT NULL,
	PRIMARY KEY (key)
);

CREATE INDEX IF NOT EXISTS kv_updated_index
ON kv (updated);
`
	param := gorqlite.ParameterizedStatement{
		Query:     query,
		Arguments: []any{},
	}

	result, err := db.conn.WriteOneParameterizedContext(ctx, param)
	if err != nil {
		return fmt.Errorf("do query: %w", err)
	}

	if result.Err != nil {
		return fmt.Errorf("result error: %w", result.Err)
	}

	return nil
}
