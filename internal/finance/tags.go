package finance

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// EnsureTag returns the cached tag whose trimmed name matches name
// case-insensitively, creating it on the backend only when none does.
func (c *FinanceCache) EnsureTag(ctx context.Context, name string) (core.Tag, error) {
	if err := core.ValidateTagName(name); err != nil {
		return core.Tag{}, c.fail(ctx, log.OpCreate, "tag", err)
	}
	name = strings.TrimSpace(name)

	c.tagMu.Lock()
	defer c.tagMu.Unlock()

	if tag, ok := c.findTag(name); ok {
		return tag, nil
	}

	done := c.begin()
	defer done()

	created, err := c.gw.CreateTag(ctx, name)
	if err != nil {
		return core.Tag{}, c.fail(ctx, log.OpCreate, "tag", fmt.Errorf("create tag %q: %w", name, err))
	}
	c.mutate(func() { c.tags = append(slices.Clip(c.tags), created) })
	c.publish(ctx, amqp.TagCreated, created.ID)
	return created, nil
}

// ResolveTags maps free-text tag names to tags, reusing existing ones.
// Names that resolve to the same tag appear once, in first-seen order.
func (c *FinanceCache) ResolveTags(ctx context.Context, names []string) ([]core.Tag, error) {
	out := make([]core.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := c.EnsureTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		out = append(out, tag)
	}
	return out, nil
}

// TransactionsByTag reads through to the backend; the result is not cached.
func (c *FinanceCache) TransactionsByTag(ctx context.Context, tagID string) ([]core.Transaction, error) {
	done := c.begin()
	defer done()

	txs, err := c.gw.TransactionsByTag(ctx, tagID)
	if err != nil {
		return nil, c.fail(ctx, log.OpRead, "tag", fmt.Errorf("transactions by tag %s: %w", tagID, err))
	}
	return nonNil(txs), nil
}

func (c *FinanceCache) findTag(name string) (core.Tag, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tags {
		if sameName(t.Name, name) {
			return t, true
		}
	}
	return core.Tag{}, false
}
