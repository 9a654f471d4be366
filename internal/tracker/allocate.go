package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/parttrack/internal/parts"
	"github.com/roach88/parttrack/internal/store"
)

// MaxAllocation caps a single allocation request.
const MaxAllocation = 1000

// AllocateParts reserves count new part numbers of kind.
func (s *Service) AllocateParts(ctx context.Context, kind string, count int) ([]parts.Part, error) {
	k, err := parts.ParseKind(kind)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Code: CodeUnknownKind, Message: "unknown part kind", Err: err}
	}
	spec, ok := s.catalog.Spec(k)
	if !ok {
		return nil, validationError(CodeUnknownKind, "", "kind %s is not in the catalog", k)
	}
	if count < 1 || count > MaxAllocation {
		return nil, validationError(CodeInvalidCount, "", "count must be between 1 and %d, got %d", MaxAllocation, count)
	}

	format := func(serial int64) (string, error) {
		return s.catalog.Format(k, serial)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	numbers, err := s.store.AllocatePartNumbers(ctx, string(k), spec.Prefix, count, format, s.now().UTC())
	if errors.Is(err, parts.ErrSerialOverflow) {
		return nil, &Error{
			Kind:    KindConflict,
			Code:    CodeSerialsExhausted,
			Message: fmt.Sprintf("no %d free %s serials left for prefix %s", count, k, spec.Prefix),
			Err:     err,
		}
	}
	if err != nil {
		return nil, storageError("allocate part numbers", err)
	}

	out := make([]parts.Part, 0, len(numbers))
	for _, n := range numbers {
		p, err := s.catalog.Parse(n)
		if err != nil {
			return nil, storageError("parse allocated part number", err)
		}
		out = append(out, p)
	}

	s.logger.Info("part numbers allocated",
		zap.String("kind", string(k)),
		zap.Int("count", len(out)),
	)
	return out, nil
}

// Allocated lists allocated parts, optionally restricted to one kind.
func (s *Service) Allocated(ctx context.Context, kind string) ([]store.AllocatedPart, error) {
	if kind != "" {
		k, err := parts.ParseKind(kind)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Code: CodeUnknownKind, Message: "unknown part kind", Err: err}
		}
		kind = string(k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.store.ListAllocated(ctx, kind)
	if err != nil {
		return nil, storageError("list allocated parts", err)
	}
	return list, nil
}
