/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/querykit/database"
	"github.com/tomoncle/querykit/repository"
	"github.com/tomoncle/querykit/types"
)

type writer struct {
	bun.BaseModel `bun:"table:writers,alias:w"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id" yaml:"id"`
	Name string `bun:"name,notnull" json:"name" yaml:"name"`
}

type article struct {
	bun.BaseModel `bun:"table:articles,alias:art"`
	types.BaseEntityWithID[uuid.UUID]

	Title    string           `bun:"title,notnull" json:"title" yaml:"title"`
	Views    int              `bun:"views" json:"views" yaml:"views"`
	Tags     types.JsonObject `bun:"tags" json:"tags,omitempty" yaml:"tags,omitempty"`
	WriterID int64            `bun:"writer_id" json:"writer_id" yaml:"writer_id"`
	Writer   *writer          `bun:"rel:belongs-to,join:writer_id=id" json:"writer,omitempty" yaml:"writer,omitempty"`
}

// articleView is the printed shape of an article.
type articleView struct {
	ID      uuid.UUID        `json:"id" yaml:"id"`
	Title   string           `json:"title" yaml:"title"`
	Views   int              `json:"views" yaml:"views"`
	Writer  string           `json:"writer,omitempty" yaml:"writer,omitempty"`
	Tags    types.JsonObject `json:"tags,omitempty" yaml:"tags,omitempty"`
	Created time.Time        `json:"created" yaml:"created"`
}

func viewOf(a *article) *articleView {
	v := &articleView{ID: a.ID, Title: a.Title, Views: a.Views, Tags: a.Tags, Created: a.Created}
	if a.Writer != nil {
		v.Writer = a.Writer.Name
	}
	return v
}

var demoWriters = []string{"Ada", "Grace", "Linus"}

var demoTitles = []string{
	"Channels in practice", "Generics at work", "Context cancellation",
	"Profiling with pprof", "Error wrapping", "Table driven tests",
	"Escape analysis", "Struct embedding", "Interfaces and nil",
	"Worker pools", "Select statements", "Build tags",
}

// demoEpoch anchors the creation times so the default ordering is stable.
var demoEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// demoArticles returns n articles with deterministic ids and creation
// times, cycling through the demo writers.
func demoArticles(n int) []*article {
	items := make([]*article, 0, n)
	for i := 0; i < n; i++ {
		title := demoTitles[i%len(demoTitles)]
		if i >= len(demoTitles) {
			title = fmt.Sprintf("%s (%d)", title, i/len(demoTitles)+1)
		}
		a := &article{
			Title:    title,
			Views:    (i*37 + 11) % 100,
			Tags:     types.JsonObject{"words": len(title)},
			WriterID: int64(i%len(demoWriters)) + 1,
		}
		a.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(title))
		a.Created = demoEpoch.Add(time.Duration(i) * time.Hour)
		items = append(items, a)
	}
	return items
}

// seedDemo opens the configured database, creates the demo tables and
// inserts rows articles. The caller disconnects the returned manager.
func seedDemo(ctx context.Context, cfg *database.Config, opts repository.Options, rows int) (database.AbstractDatabaseManager, error) {
	manager, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := manager.GetDB()
	err = database.NewMigrationManager(db, database.GetLogger()).
		WithModels((*writer)(nil), (*article)(nil)).
		RunMigrations(ctx)
	if err != nil {
		_ = manager.Disconnect()
		return nil, err
	}

	writers := make([]*writer, len(demoWriters))
	for i, name := range demoWriters {
		writers[i] = &writer{ID: int64(i) + 1, Name: name}
	}
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := repository.NewBunRepository[writer](tx, opts).Upsert(ctx, []string{"name"}, []string{"id"}, writers...); err != nil {
			return err
		}
		return repository.NewBunRepository[article](tx, opts).Upsert(ctx, []string{"title", "views", "tags", "writer_id"}, []string{"id"}, demoArticles(rows)...)
	})
	if err != nil {
		_ = manager.Disconnect()
		return nil, err
	}
	return manager, nil
}
