package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgsanitize/internal/fieldmap"
	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Accounts replaces the identity, profile and password of every account
// whose email is outside the preserved domains, then deletes legacy
// contact-method attributes for all accounts.
type Accounts struct {
	store   sanitize.AccountStore
	mutator sanitize.BulkMutator
	gen     IdentityGenerator
	hasher  PasswordHasher
	schema  wordpress.Schema
	logger  sanitize.Logger
	opts    Options
}

// NewAccounts creates the accounts stage.
func NewAccounts(
	store sanitize.AccountStore,
	mutator sanitize.BulkMutator,
	gen IdentityGenerator,
	hasher PasswordHasher,
	schema wordpress.Schema,
	logger sanitize.Logger,
	opts Options,
) *Accounts {
	if store == nil {
		panic("store cannot be nil")
	}
	if mutator == nil {
		panic("mutator cannot be nil")
	}
	if gen == nil {
		panic("gen cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Accounts{
		store:   store,
		mutator: mutator,
		gen:     gen,
		hasher:  hasher,
		schema:  schema,
		logger:  logger,
		opts:    opts.withDefaults(),
	}
}

func (s *Accounts) Name() string        { return NameUsers }
func (s *Accounts) Description() string { return "Sanitizing user accounts" }

// Ready always returns true.
func (s *Accounts) Ready(ctx context.Context) (bool, error) { return true, nil }

// Run rewrites accounts one by one. A failed record is logged and counted;
// enumeration or contact-method deletion failures end the stage.
func (s *Accounts) Run(ctx context.Context) (sanitize.StageResult, error) {
	result := sanitize.StageResult{Name: s.Name()}
	batchStart := time.Now()

	err := s.store.EachAccount(ctx, s.opts.BatchSize, func(a sanitize.Account) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Processed++

		if hasDomain(a.Email, s.opts.PreserveDomains) {
			result.Preserved++
			s.logger.Verbose("account %d: preserved (%s)", a.ID, a.Email)
		} else if err := s.sanitizeAccount(ctx, a); err != nil {
			result.Failed++
			s.logger.Error("account %d: %v", a.ID, err)
		} else {
			result.Updated++
		}

		if result.Processed%int64(s.opts.ProgressEvery) == 0 {
			s.logger.Info("%d accounts processed (last %d in %s)",
				result.Processed, s.opts.ProgressEvery, time.Since(batchStart).Round(time.Millisecond))
			batchStart = time.Now()
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return result, err
		}
		return result, fmt.Errorf("enumerate accounts: %w: %w", sanitize.ErrBulkOperation, err)
	}

	for _, key := range fieldmap.ContactMethods.Keys() {
		n, err := s.mutator.DeleteAttribute(ctx, s.schema.UserMeta(), fieldmap.Variants(key))
		if err != nil {
			return result, err
		}
		result.Deleted += n
	}

	s.logger.Info("%d accounts processed: %d sanitized, %d preserved, %d failed; %d contact entries deleted",
		result.Processed, result.Updated, result.Preserved, result.Failed, result.Deleted)
	return result, nil
}

func (s *Accounts) sanitizeAccount(ctx context.Context, a sanitize.Account) error {
	// The account id keeps generated handles unique.
	handle := fmt.Sprintf("%s%d", s.gen.Generate(sanitize.KindUsername), a.ID)

	hash, err := s.hasher.Hash(s.gen.Generate(sanitize.KindPassword))
	if err != nil {
		return fmt.Errorf("%w: %w", sanitize.ErrRowWrite, err)
	}

	profile := s.profileValues()
	update := sanitize.AccountUpdate{
		ID:           a.ID,
		Login:        handle,
		Nicename:     handle,
		Email:        s.gen.SafeEmail(handle),
		DisplayName:  profile["first_name"] + " " + profile["last_name"],
		PasswordHash: hash,
		Meta:         profile,
	}
	if a.URL != "" {
		update.URL = s.gen.Generate(sanitize.KindURL)
		update.UpdateURL = true
	}

	return s.store.UpdateAccount(ctx, update)
}

// profileValues generates one value per profile attribute.
func (s *Accounts) profileValues() map[string]string {
	values := make(map[string]string, fieldmap.AccountProfile.Len())
	for _, key := range fieldmap.AccountProfile.Keys() {
		rule, _ := fieldmap.AccountProfile.KindFor(key)
		if rule.Kind == sanitize.KindText {
			values[key] = s.gen.Text(sanitize.AccountTextMaxChars)
			continue
		}
		values[key] = s.gen.Generate(rule.Kind)
	}
	return values
}

var _ sanitize.Stage = (*Accounts)(nil)
