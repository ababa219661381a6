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

package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	einoindexer "github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"

	"coworker-engine/pkg/log"
)

// chunkSize 单个知识片段的近似字符上限
const chunkSize = 800

// IngestDir 遍历知识目录并入库。
// 一级子目录名即知识域（与角色的 KnowledgeScope 对应），
// 支持 .md / .txt / .pdf 文件
func IngestDir(ctx context.Context, dir string, indexer einoindexer.Indexer, logger *log.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取知识目录failed: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		scope := entry.Name()
		scopeDir := filepath.Join(dir, scope)
		files, err := os.ReadDir(scopeDir)
		if err != nil {
			return total, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			n, err := ingestFile(ctx, filepath.Join(scopeDir, f.Name()), scope, indexer)
			if err != nil {
				logger.Warn("知识文件入库失败，跳过", "file", f.Name(), "error", err)
				continue
			}
			total += n
		}
	}
	logger.Info("知识库入库完成", "dir", dir, "chunks", total)
	return total, nil
}

func ingestFile(ctx context.Context, path, scope string, indexer einoindexer.Indexer) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = ExtractPDFText(data)
		if err != nil {
			return 0, err
		}
	case ".md", ".txt":
		text = string(data)
	default:
		return 0, nil
	}

	chunks := splitChunks(text, chunkSize)
	if len(chunks) == 0 {
		return 0, nil
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs := make([]*schema.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = &schema.Document{
			ID:      fmt.Sprintf("%s-%s-%d", scope, base, i),
			Content: chunk,
			MetaData: map[string]interface{}{
				"scope":  scope,
				"source": filepath.Base(path),
			},
		}
	}
	if _, err := indexer.Store(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// splitChunks 按空行分段，合并相邻段落直到接近 maxLen
func splitChunks(text string, maxLen int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var buf strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(p) > maxLen {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(p)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}
