// Package notiontest provides an in-memory notion.API for tests.
package notiontest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yigit/practicelog/internal/pkg/notion"
)

// ErrInjected is returned by calls configured to fail
var ErrInjected = errors.New("notiontest: injected failure")

// Fake is a concurrency-safe in-memory provider
type Fake struct {
	mu sync.Mutex

	databases map[string]*notion.Database
	pages     map[string][]notion.Page
	children  map[string][]notion.Block

	failDatabase map[string]error
	failQuery    map[string]error
	failChildren map[string]error

	// BlockPageSize bounds each children listing; 0 means the caller's page size
	BlockPageSize int
	// QueryPageSize bounds each query page; 0 means the caller's page size
	QueryPageSize int

	childCalls map[string]int
	queries    []Query
	created    []notion.CreatePageRequest
	clock      func() time.Time
}

// Query records one QueryDatabase call
type Query struct {
	DatabaseID string
	Filter     *notion.Filter
}

// New creates an empty fake
func New() *Fake {
	return &Fake{
		databases:    map[string]*notion.Database{},
		pages:        map[string][]notion.Page{},
		children:     map[string][]notion.Block{},
		failDatabase: map[string]error{},
		failQuery:    map[string]error{},
		failChildren: map[string]error{},
		childCalls:   map[string]int{},
		clock:        time.Now,
	}
}

// AddDatabase registers a database schema
func (f *Fake) AddDatabase(id string, props ...notion.PropertySchema) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.databases[id] = &notion.Database{ID: id, Properties: props}
}

// AddPages appends rows to a database
func (f *Fake) AddPages(databaseID string, pages ...notion.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[databaseID] = append(f.pages[databaseID], pages...)
}

// SetChildren sets the children of a block or page
func (f *Fake) SetChildren(parentID string, blocks ...notion.Block) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children[parentID] = blocks
}

// FailDatabase makes RetrieveDatabase fail for id
func (f *Fake) FailDatabase(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDatabase[id] = orInjected(err)
}

// FailQuery makes QueryDatabase fail for id
func (f *Fake) FailQuery(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failQuery[id] = orInjected(err)
}

// FailChildren makes ListBlockChildren fail for id
func (f *Fake) FailChildren(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failChildren[id] = orInjected(err)
}

func orInjected(err error) error {
	if err == nil {
		return ErrInjected
	}
	return err
}

// ChildCalls returns how many times children of id were listed
func (f *Fake) ChildCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.childCalls[id]
}

// ListedIDs returns every id whose children were listed at least once
func (f *Fake) ListedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.childCalls))
	for id := range f.childCalls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Queries returns the recorded database queries
func (f *Fake) Queries() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query{}, f.queries...)
}

// Created returns the recorded page creation requests
func (f *Fake) Created() []notion.CreatePageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notion.CreatePageRequest{}, f.created...)
}

// RetrieveDatabase implements notion.API
func (f *Fake) RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDatabase[databaseID]; err != nil {
		return nil, err
	}
	db, ok := f.databases[databaseID]
	if !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "database " + databaseID}
	}
	copied := *db
	copied.Properties = append([]notion.PropertySchema{}, db.Properties...)
	return &copied, nil
}

// QueryDatabase implements notion.API with relation-contains filtering,
// created_time sorting and cursor pagination
func (f *Fake) QueryDatabase(ctx context.Context, databaseID string, query *notion.DatabaseQuery) (*notion.PageList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if query == nil {
		query = &notion.DatabaseQuery{}
	}
	f.queries = append(f.queries, Query{DatabaseID: databaseID, Filter: query.Filter})
	if err := f.failQuery[databaseID]; err != nil {
		return nil, err
	}

	rows := make([]notion.Page, 0, len(f.pages[databaseID]))
	for _, p := range f.pages[databaseID] {
		if matchesFilter(p, query.Filter) {
			rows = append(rows, p)
		}
	}
	for _, s := range query.Sorts {
		if s.Timestamp == notion.TimestampCreated {
			desc := s.Direction == notion.SortDescending
			sort.SliceStable(rows, func(i, j int) bool {
				if desc {
					return rows[i].CreatedTime.After(rows[j].CreatedTime)
				}
				return rows[i].CreatedTime.Before(rows[j].CreatedTime)
			})
		}
	}

	start, size := window(query.StartCursor, query.PageSize, f.QueryPageSize, len(rows))
	end := start + size
	list := &notion.PageList{Results: append([]notion.Page{}, rows[start:end]...)}
	if end < len(rows) {
		list.HasMore = true
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

func matchesFilter(p notion.Page, filter *notion.Filter) bool {
	if filter == nil || filter.Relation == nil {
		return true
	}
	v, ok := p.Property(filter.Property)
	if !ok || v.Type != notion.PropertyRelation {
		return false
	}
	for _, ref := range v.Relation {
		if notion.SameID(ref.ID, filter.Relation.Contains) {
			return true
		}
	}
	return false
}

func window(cursor string, requested, limit, total int) (int, int) {
	start := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil {
			start = n
		}
	}
	if start > total {
		start = total
	}
	size := requested
	if size <= 0 {
		size = 100
	}
	if limit > 0 && limit < size {
		size = limit
	}
	if start+size > total {
		size = total - start
	}
	return start, size
}

// ListBlockChildren implements notion.API with cursor pagination
func (f *Fake) ListBlockChildren(ctx context.Context, blockID, startCursor string, pageSize int) (*notion.BlockList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.childCalls[blockID]++
	if err := f.failChildren[blockID]; err != nil {
		return nil, err
	}

	blocks := f.children[blockID]
	start, size := window(startCursor, pageSize, f.BlockPageSize, len(blocks))
	end := start + size
	list := &notion.BlockList{Results: append([]notion.Block{}, blocks[start:end]...)}
	if end < len(blocks) {
		list.HasMore = true
		list.NextCursor = strconv.Itoa(end)
	}
	return list, nil
}

// CreatePage implements notion.API, storing the row so later queries see it
func (f *Fake) CreatePage(ctx context.Context, req *notion.CreatePageRequest) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.databases[req.Parent.DatabaseID]; !ok {
		return nil, &notion.APIError{Status: 404, Code: "object_not_found", Message: "database " + req.Parent.DatabaseID}
	}
	f.created = append(f.created, *req)

	names := make([]string, 0, len(req.Properties))
	for name := range req.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	page := notion.Page{ID: uuid.NewString(), CreatedTime: f.clock()}
	for _, name := range names {
		page.Properties = append(page.Properties, inputToValue(name, req.Properties[name]))
	}
	f.pages[req.Parent.DatabaseID] = append(f.pages[req.Parent.DatabaseID], page)
	return &page, nil
}

func inputToValue(name string, in notion.PropertyInput) notion.PropertyValue {
	switch {
	case in.Title != nil:
		text := ""
		for _, t := range in.Title {
			text += t.Text.Content
		}
		return Title(name, text)
	case in.Relation != nil:
		ids := make([]string, 0, len(in.Relation))
		for _, r := range in.Relation {
			ids = append(ids, r.ID)
		}
		return Relation(name, ids...)
	case in.Files != nil:
		return notion.PropertyValue{Name: name, Type: notion.PropertyFiles, Files: in.Files}
	case in.Date != nil:
		return Date(name, in.Date.Start)
	}
	panic(fmt.Sprintf("notiontest: empty property input %q", name))
}
