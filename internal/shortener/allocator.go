// Code allocation. An Allocator proposes a code that is free in its
// namespace. Callers insert the entity themselves and route insert
// conflicts through Claim, which retries a generated code once.

package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/slug"
)

// MaxAttempts bounds the auto-generated path. At 7 characters a repeat is
// already rare, five misses in a row means something else is wrong.
const MaxAttempts = 5

// Namespace identifies a disjoint code space.
type Namespace string

const (
	NamespaceLinks  Namespace = "links"
	NamespaceQR     Namespace = "qr"
	NamespaceShares Namespace = "shares"
)

var (
	ErrInvalidSlug = domain.NewValidationError("slug",
		"must be 3-20 characters long and use only letters, digits, '-' or '_'")
	ErrReservedSlug        = domain.NewValidationError("slug", "is reserved, please choose another one")
	ErrSlugTaken           = fmt.Errorf("%w: slug is already taken", domain.ErrConflict)
	ErrAllocationExhausted = fmt.Errorf("%w: could not allocate a unique code, please retry", domain.ErrExhausted)
)

// Outcome labels reported to an AllocationObserver.
const (
	OutcomeAllocated = "allocated"
	OutcomeInvalid   = "invalid"
	OutcomeReserved  = "reserved"
	OutcomeTaken     = "taken"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// ExistsFunc reports whether code is already stored in a namespace.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// AllocationObserver receives one call per Allocate.
type AllocationObserver func(ns Namespace, outcome string, attempts int)

// Allocator certifies codes as unoccupied at check time. It never writes;
// the caller inserts and the storage unique constraint is the backstop.
type Allocator struct {
	ns          Namespace
	exists      ExistsFunc
	generate    slug.Generator
	maxAttempts int
	observe     AllocationObserver
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithObserver reports every allocation outcome to fn.
func WithObserver(fn AllocationObserver) AllocatorOption {
	return func(a *Allocator) {
		a.observe = fn
	}
}

// NewAllocator creates an allocator for one namespace.
func NewAllocator(ns Namespace, exists ExistsFunc, generate slug.Generator, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		ns:          ns,
		exists:      exists,
		generate:    generate,
		maxAttempts: MaxAttempts,
		observe:     func(Namespace, string, int) {},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Namespace returns the code space this allocator serves.
func (a *Allocator) Namespace() Namespace {
	return a.ns
}

// Allocate returns custom when it is valid and free, or a generated code
// when custom is empty.
func (a *Allocator) Allocate(ctx context.Context, custom string) (string, error) {
	if custom != "" {
		return a.allocateCustom(ctx, custom)
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code := a.generate()

		taken, err := a.exists(ctx, code)
		if err != nil {
			a.observe(a.ns, OutcomeError, attempt)
			return "", domain.Upstream("check code availability", err)
		}

		if !taken {
			a.observe(a.ns, OutcomeAllocated, attempt)
			return code, nil
		}
	}

	a.observe(a.ns, OutcomeExhausted, a.maxAttempts)

	return "", ErrAllocationExhausted
}

func (a *Allocator) allocateCustom(ctx context.Context, custom string) (string, error) {
	if !slug.IsValidCustom(custom) {
		a.observe(a.ns, OutcomeInvalid, 0)
		return "", ErrInvalidSlug
	}

	if slug.IsReserved(custom) {
		a.observe(a.ns, OutcomeReserved, 0)
		return "", ErrReservedSlug
	}

	taken, err := a.exists(ctx, custom)
	if err != nil {
		a.observe(a.ns, OutcomeError, 1)
		return "", domain.Upstream("check slug availability", err)
	}

	if taken {
		a.observe(a.ns, OutcomeTaken, 1)
		return "", ErrSlugTaken
	}

	a.observe(a.ns, OutcomeAllocated, 1)

	return custom, nil
}

// Claim allocates a code and runs insert with it. A unique violation on an
// auto code means another request won the race after the lookup; one fresh
// allocation is attempted before giving up.
func (a *Allocator) Claim(ctx context.Context, custom string, insert func(code string) error) error {
	code, err := a.Allocate(ctx, custom)
	if err != nil {
		return err
	}

	err = insert(code)
	if err == nil {
		return nil
	}

	if !errors.Is(err, domain.ErrConflict) {
		return domain.Upstream("store "+string(a.ns), err)
	}

	if custom != "" {
		return ErrSlugTaken
	}

	if code, err = a.Allocate(ctx, ""); err != nil {
		return err
	}

	if err = insert(code); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return ErrAllocationExhausted
		}

		return domain.Upstream("store "+string(a.ns), err)
	}

	return nil
}
