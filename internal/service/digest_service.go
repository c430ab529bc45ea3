package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"item-catalog/internal/model"
	"item-catalog/internal/repository"
)

// DigestService builds periodic summaries of newly added items.
type DigestService struct {
	items    *repository.ItemRepository
	notifier Notifier
	log      *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

func NewDigestService(items *repository.ItemRepository, notifier Notifier, start time.Time, log *slog.Logger) *DigestService {
	if log == nil {
		log = slog.Default()
	}
	return &DigestService{items: items, notifier: notifier, log: log, lastRun: start}
}

// Summary formats the items created after since and no later than now. It
// returns an empty string when there is nothing new.
func (s *DigestService) Summary(ctx context.Context, since, now time.Time) (string, error) {
	items, err := s.items.ListCreatedBetween(ctx, since, now)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}

	var order []string
	byCategory := make(map[string][]model.CategoryItem)
	for _, item := range items {
		name := "Uncategorized"
		if item.Category != nil {
			name = item.Category.Title
		}
		if _, ok := byCategory[name]; !ok {
			order = append(order, name)
		}
		byCategory[name] = append(byCategory[name], item)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Catalog digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s · %d new item(s)\n", now.Format("2006-01-02 15:04"), len(items)))
	for _, name := range order {
		builder.WriteString(fmt.Sprintf("\n📂 <b>%s</b>\n", html.EscapeString(name)))
		for _, item := range byCategory[name] {
			builder.WriteString(formatDigestItem(item))
		}
	}
	return strings.TrimSpace(builder.String()), nil
}

// Send posts the digest for everything created since the previous run.
func (s *DigestService) Send(ctx context.Context) error {
	now := time.Now()
	s.mu.Lock()
	since := s.lastRun
	s.mu.Unlock()

	text, err := s.Summary(ctx, since, now)
	if err != nil {
		return err
	}
	if text != "" {
		if err := s.notifier.Notify(ctx, text); err != nil {
			return fmt.Errorf("send digest: %w", err)
		}
		s.log.Info("digest sent", slog.Time("since", since))
	}

	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()
	return nil
}

func formatDigestItem(item model.CategoryItem) string {
	var sb strings.Builder
	sb.WriteString("• " + html.EscapeString(strings.TrimSpace(item.Title)))
	if desc := strings.TrimSpace(item.Description); desc != "" {
		sb.WriteString("\n   📝 " + html.EscapeString(shorten(desc, 80)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func shorten(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
