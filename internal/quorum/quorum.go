package quorum

import (
	"context"
	"fmt"
	"sync"

	"quorumfs/internal/cluster"
)

// Reply is the outcome of one member call within a fan-out.
type Reply[T any] struct {
	Member cluster.NodeIdentity
	Value  T
	Err    error
}

// MemberFunc performs one call against a single quorum member.
type MemberFunc[T any] func(ctx context.Context, member cluster.NodeIdentity) (T, error)

// Gather calls fn on every member in parallel and waits for all of them.
// Replies are returned in member order regardless of completion order, so
// callers that break ties by first-encountered stay deterministic.
func Gather[T any](ctx context.Context, members []cluster.NodeIdentity, fn MemberFunc[T]) []Reply[T] {
	replies := make([]Reply[T], len(members))

	var wg sync.WaitGroup
	for i, member := range members {
		wg.Add(1)
		go func(i int, member cluster.NodeIdentity) {
			defer wg.Done()

			value, err := fn(ctx, member)
			replies[i] = Reply[T]{Member: member, Value: value, Err: err}
		}(i, member)
	}
	wg.Wait()

	return replies
}

// FirstError returns the error of the first failed reply in member order,
// annotated with the member address.
func FirstError[T any](replies []Reply[T]) error {
	for _, r := range replies {
		if r.Err != nil {
			return fmt.Errorf("member %s: %w", r.Member.Addr(), r.Err)
		}
	}
	return nil
}

// Values returns the values of the successful replies, in member order.
func Values[T any](replies []Reply[T]) []T {
	values := make([]T, 0, len(replies))
	for _, r := range replies {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}
