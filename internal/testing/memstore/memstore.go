// Package memstore is an in-memory stand-in for the WordPress tables, used
// by stage and pipeline tests. It implements every store contract of
// package sanitize and counts mutations so tests can assert that nothing
// was written.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// User is an account row.
type User struct {
	ID          int64
	Login       string
	Nicename    string
	Email       string
	URL         string
	DisplayName string
	Pass        string
}

// Comment is a comment row.
type Comment struct {
	ID          int64
	Type        string
	Status      string
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	Body        string
}

// AttrRow is a row of an attribute table.
type AttrRow struct {
	ID    int64
	Owner int64
	Key   string
	Value *string
}

// Store holds the fake tables. Exported fields may be seeded directly
// before use; call methods afterwards.
type Store struct {
	mu sync.Mutex

	UserMetaTable string
	Users         map[int64]*User
	Comments      []*Comment
	Attributes    map[string][]*AttrRow            // by table name
	Columns       map[string][]map[string]*string // by table name; "id" holds the row id
	Tables        map[string]bool                  // tables reported by TableExists
	ActivePlugins []string

	// FailAccounts and FailComments make UpdateAccount/UpdateContent fail for these ids.
	FailAccounts map[int64]bool
	FailComments map[int64]bool
	// FailAccountMeta fails the attribute half of UpdateAccount for these ids.
	FailAccountMeta map[int64]bool
	// FailBulk makes every BulkMutator method fail.
	FailBulk error

	Mutations int
}

// New creates an empty Store. userMeta names the account attribute table.
func New(userMeta string) *Store {
	return &Store{
		UserMetaTable:   userMeta,
		Users:           map[int64]*User{},
		Attributes:      map[string][]*AttrRow{},
		Columns:         map[string][]map[string]*string{},
		Tables:          map[string]bool{userMeta: true},
		FailAccounts:    map[int64]bool{},
		FailComments:    map[int64]bool{},
		FailAccountMeta: map[int64]bool{},
	}
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// AddUser adds an account.
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.Users[u.ID] = &cp
}

// AddAttr appends a row to an attribute table and marks the table as existing.
func (s *Store) AddAttr(table string, owner int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.Attributes[table]
	s.Attributes[table] = append(rows, &AttrRow{ID: int64(len(rows) + 1), Owner: owner, Key: key, Value: Str(value)})
	s.Tables[table] = true
}

// AddComment appends a comment.
func (s *Store) AddComment(c Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.Comments = append(s.Comments, &cp)
}

// Attr returns the value of the first row in table for owner and key.
func (s *Store) Attr(table string, owner int64, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.Attributes[table] {
		if r.Owner == owner && r.Key == key && r.Value != nil {
			return *r.Value, true
		}
	}
	return "", false
}

// CountKey returns how many rows of table carry key.
func (s *Store) CountKey(table, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.Attributes[table] {
		if r.Key == key {
			n++
		}
	}
	return n
}

// EachAccount implements sanitize.AccountStore.
func (s *Store) EachAccount(ctx context.Context, batchSize int, fn func(sanitize.Account) error) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.Users))
	for id := range s.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	accounts := make([]sanitize.Account, len(ids))
	for i, id := range ids {
		u := s.Users[id]
		accounts[i] = sanitize.Account{ID: u.ID, Login: u.Login, Email: u.Email, URL: u.URL, DisplayName: u.DisplayName}
	}
	s.mu.Unlock()

	for _, a := range accounts {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAccount implements sanitize.AccountStore. Failures are checked
// before anything is written, so a failed update leaves the account as it was.
func (s *Store) UpdateAccount(ctx context.Context, u sanitize.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAccounts[u.ID] {
		return fmt.Errorf("account %d: %w", u.ID, sanitize.ErrRowWrite)
	}
	user, ok := s.Users[u.ID]
	if !ok {
		return fmt.Errorf("account %d no longer exists: %w", u.ID, sanitize.ErrRowWrite)
	}
	if s.FailAccountMeta[u.ID] {
		return fmt.Errorf("account %d attributes: %w", u.ID, sanitize.ErrRowWrite)
	}

	user.Login = u.Login
	user.Nicename = u.Nicename
	user.Email = u.Email
	user.DisplayName = u.DisplayName
	user.Pass = u.PasswordHash
	if u.UpdateURL {
		user.URL = u.URL
	}
	s.Mutations++

	for _, r := range s.Attributes[s.UserMetaTable] {
		if r.Owner != u.ID {
			continue
		}
		if v, ok := u.Meta[strings.TrimPrefix(r.Key, "_")]; ok {
			r.Value = Str(v)
			s.Mutations++
		}
	}
	return nil
}

// EachContent implements sanitize.ContentStore.
func (s *Store) EachContent(ctx context.Context, status string, batchSize int, fn func(sanitize.ContentItem) error) error {
	s.mu.Lock()
	var items []sanitize.ContentItem
	for _, c := range s.Comments {
		if c.Status == status {
			items = append(items, sanitize.ContentItem{
				ID: c.ID, Type: c.Type, Status: c.Status,
				AuthorName: c.AuthorName, AuthorEmail: c.AuthorEmail, AuthorURL: c.AuthorURL, Body: c.Body,
			})
		}
	}
	s.mu.Unlock()

	for _, item := range items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

// UpdateContent implements sanitize.ContentStore.
func (s *Store) UpdateContent(ctx context.Context, u sanitize.ContentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailComments[u.ID] {
		return fmt.Errorf("comment %d: %w", u.ID, sanitize.ErrRowWrite)
	}
	for _, c := range s.Comments {
		if c.ID == u.ID {
			c.AuthorName = u.AuthorName
			c.AuthorEmail = u.AuthorEmail
			c.AuthorURL = u.AuthorURL
			c.Body = u.Body
			s.Mutations++
			return nil
		}
	}
	return fmt.Errorf("comment %d no longer exists: %w", u.ID, sanitize.ErrRowWrite)
}

// Comment returns the comment with the given id.
func (s *Store) Comment(id int64) *Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Comments {
		if c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

// User returns a copy of the account with the given id.
func (s *Store) User(id int64) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.Users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (s *Store) bulkErr() error {
	if s.FailBulk != nil {
		return fmt.Errorf("%w: %w", sanitize.ErrBulkOperation, s.FailBulk)
	}
	return nil
}

// ReplaceAttribute implements sanitize.BulkMutator.
func (s *Store) ReplaceAttribute(ctx context.Context, table sanitize.AttributeTable, variants []string, gen func() string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bulkErr(); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.Attributes[table.Name] {
		if contains(variants, r.Key) && r.Value != nil && *r.Value != "" {
			r.Value = Str(gen())
			n++
		}
	}
	s.Mutations += int(n)
	return n, nil
}

// DeleteAttribute implements sanitize.BulkMutator.
func (s *Store) DeleteAttribute(ctx context.Context, table sanitize.AttributeTable, variants []string) (int64, error) {
	return s.deleteWhere(table.Name, func(key string) bool { return contains(variants, key) })
}

// DeleteByPrefix implements sanitize.BulkMutator.
func (s *Store) DeleteByPrefix(ctx context.Context, table sanitize.AttributeTable, prefixes []string) (int64, error) {
	return s.deleteWhere(table.Name, func(key string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	})
}

func (s *Store) deleteWhere(table string, match func(string) bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bulkErr(); err != nil {
		return 0, err
	}
	kept := s.Attributes[table][:0]
	var n int64
	for _, r := range s.Attributes[table] {
		if match(r.Key) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.Attributes[table] = kept
	s.Mutations += int(n)
	return n, nil
}

// ReplaceColumns implements sanitize.BulkMutator.
func (s *Store) ReplaceColumns(ctx context.Context, table sanitize.ColumnTable, columns map[string]func() string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bulkErr(); err != nil {
		return 0, err
	}
	var n int64
	for _, row := range s.Columns[table.Name] {
		for col, gen := range columns {
			if v, ok := row[col]; ok && v != nil && *v != "" {
				row[col] = Str(gen())
				n++
			}
		}
	}
	s.Mutations += int(n)
	return n, nil
}

// Truncate implements sanitize.BulkMutator.
func (s *Store) Truncate(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bulkErr(); err != nil {
		return err
	}
	if !s.Tables[table] {
		return fmt.Errorf("relation %q does not exist: %w", table, sanitize.ErrBulkOperation)
	}
	delete(s.Attributes, table)
	delete(s.Columns, table)
	s.Mutations++
	return nil
}

// IsActive implements sanitize.ExtensionRegistry.
func (s *Store) IsActive(ctx context.Context, plugin string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.ActivePlugins, plugin), nil
}

// TableExists implements sanitize.ExtensionRegistry.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Tables[table], nil
}

// ErrInjected is a convenience error for FailBulk.
var ErrInjected = errors.New("injected failure")

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var (
	_ sanitize.AccountStore      = (*Store)(nil)
	_ sanitize.ContentStore      = (*Store)(nil)
	_ sanitize.BulkMutator       = (*Store)(nil)
	_ sanitize.ExtensionRegistry = (*Store)(nil)
)
