// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore PostgreSQL 实现：快照表 + 追加式消息日志表
type pgStore struct {
	pool *pgxpool.Pool
}

// pgSnapshot 快照载荷（消息走日志表，不入快照）
type pgSnapshot struct {
	SentimentScore  float64                     `json:"sentiment_score"`
	TurnCount       int                         `json:"turn_count"`
	StuckCounter    int                         `json:"stuck_counter"`
	PreviousSpeaker string                      `json:"previous_speaker"`
	TaskProgress    Progress                    `json:"task_progress"`
	Emotions        map[string]*EmotionalMemory `json:"emotions"`
}

// NewPostgresStore 创建基于 PostgreSQL 的会话存储；dsn 为连接串
func NewPostgresStore(ctx context.Context, dsn string) (SessionStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &pgStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *pgStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    snapshot   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS session_messages (
    id         BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL,
    speaker    TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages (session_id, id);
`)
	return err
}

// Load 实现 SessionStore。缺失时返回新会话
func (s *pgStore) Load(ctx context.Context, id string) (*Session, error) {
	var raw []byte
	var createdAt, updatedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot, created_at, updated_at FROM sessions WHERE id = $1`, id).
		Scan(&raw, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("加载会话快照: %w", err)
	}

	var snap pgSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("解析会话快照: %w", err)
	}

	sess := &Session{
		ID:              id,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		SentimentScore:  snap.SentimentScore,
		TurnCount:       snap.TurnCount,
		StuckCounter:    snap.StuckCounter,
		PreviousSpeaker: snap.PreviousSpeaker,
		TaskProgress:    snap.TaskProgress,
		Emotions:        snap.Emotions,
	}
	if sess.TaskProgress == nil {
		sess.TaskProgress = NewProgress()
	}
	if sess.Emotions == nil {
		sess.Emotions = make(map[string]*EmotionalMemory)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT role, speaker, content, created_at FROM session_messages WHERE session_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("加载消息日志: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.Role, &m.Speaker, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		sess.Messages = append(sess.Messages, m)
	}
	return sess, rows.Err()
}

// Commit 实现 SessionStore：单事务内写快照并追加新消息
func (s *pgStore) Commit(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("nil session")
	}

	snap := pgSnapshot{
		SentimentScore:  sess.SentimentScore,
		TurnCount:       sess.TurnCount,
		StuckCounter:    sess.StuckCounter,
		PreviousSpeaker: sess.PreviousSpeaker,
		TaskProgress:    sess.TaskProgress,
		Emotions:        sess.Emotions,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化会话快照: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO sessions (id, snapshot, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		sess.ID, raw, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("写会话快照: %w", err)
	}

	// 消息日志追加式：只补写超出已持久化条数的部分
	var stored int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_messages WHERE session_id = $1`, sess.ID).Scan(&stored); err != nil {
		return err
	}
	for i := stored; i < len(sess.Messages); i++ {
		m := sess.Messages[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO session_messages (session_id, role, speaker, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			sess.ID, m.Role, m.Speaker, m.Content, m.Timestamp); err != nil {
			return fmt.Errorf("追加消息日志: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete 实现 SessionStore
func (s *pgStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `DELETE FROM session_messages WHERE session_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close 关闭连接池
func (s *pgStore) Close() {
	s.pool.Close()
}
