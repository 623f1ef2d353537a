package services

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/types"
)

func TestConversationCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "", []string{" work ", ""})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Title != "New Conversation" {
		t.Errorf("empty title should use the placeholder, got %q", conv.Title)
	}
	if len(conv.Tags) != 1 || conv.Tags[0] != "work" {
		t.Errorf("tags = %v, want [work]", conv.Tags)
	}
	if conv.Status != types.ConversationStatusActive {
		t.Errorf("status = %q, want active", conv.Status)
	}

	if _, err := env.conversations.Create(ctx, "Trip planning", nil); err != nil {
		t.Fatalf("create second: %v", err)
	}

	page, err := env.conversations.List(ctx, repos.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Conversations) != 2 {
		t.Fatalf("total = %d, rows = %d, want 2/2", page.Total, len(page.Conversations))
	}

	stats, err := env.users.GetStats(ctx)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.Conversations != 2 {
		t.Errorf("conversation counter = %d, want 2", stats.Conversations)
	}
}

func TestConversationListOrderingAndPagination(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	// Stagger last_message_at so the sort order is observable: "first"
	// is the oldest conversation, "fifth" the newest.
	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"first", "second", "third", "fourth", "fifth"}
	for i, title := range titles {
		conv, err := env.conversations.Create(ctx, title, nil)
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		conv.LastMessageAt = base.Add(time.Duration(i) * time.Minute)
		if err := env.convRepo.Save(ctx, nil, conv); err != nil {
			t.Fatalf("save %s: %v", title, err)
		}
	}

	cases := []struct {
		name string
		opts repos.ListOptions
		want []string
	}{
		{"default newest first", repos.ListOptions{}, []string{"fifth", "fourth", "third", "second", "first"}},
		{"ascending when asked", repos.ListOptions{SortAsc: true}, []string{"first", "second", "third", "fourth", "fifth"}},
		{"offset and limit window", repos.ListOptions{Offset: 1, Limit: 2}, []string{"fourth", "third"}},
		{"sort by title", repos.ListOptions{SortBy: "title", SortAsc: true}, []string{"fifth", "first", "fourth", "second", "third"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := env.conversations.List(ctx, tc.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if page.Total != int64(len(titles)) {
				t.Errorf("total = %d, want %d", page.Total, len(titles))
			}
			if len(page.Conversations) != len(tc.want) {
				t.Fatalf("rows = %d, want %d", len(page.Conversations), len(tc.want))
			}
			for i, want := range tc.want {
				if got := page.Conversations[i].Title; got != want {
					t.Errorf("row %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestConversationSearchPagination(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 1; i <= 5; i++ {
		conv, err := env.conversations.Create(ctx, fmt.Sprintf("lisbon %d", i), nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		conv.LastMessageAt = base.Add(time.Duration(i) * time.Minute)
		if err := env.convRepo.Save(ctx, nil, conv); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	page, err := env.conversations.Search(ctx, "lisbon", 1, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 5 {
		t.Errorf("total = %d, want 5", page.Total)
	}
	want := []string{"lisbon 4", "lisbon 3"}
	if len(page.Conversations) != len(want) {
		t.Fatalf("rows = %d, want %d", len(page.Conversations), len(want))
	}
	for i := range want {
		if got := page.Conversations[i].Title; got != want[i] {
			t.Errorf("row %d = %q, want %q", i, got, want[i])
		}
	}

	past, err := env.conversations.Search(ctx, "lisbon", 10, 2)
	if err != nil {
		t.Fatalf("search past end: %v", err)
	}
	if len(past.Conversations) != 0 || past.Total != 5 {
		t.Errorf("past-end page = %d rows, total %d", len(past.Conversations), past.Total)
	}
}

func TestConversationOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "river", "river@example.com", "hunter2hunter2")
	other := env.register(t, "sky", "sky@example.com", "hunter2hunter2")

	conv, err := env.conversations.Create(ctxFor(owner.ID), "Private", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.conversations.Get(ctxFor(other.ID), conv.ID); apierr.StatusOf(err) != http.StatusForbidden {
		t.Errorf("cross-user get status = %d, want 403", apierr.StatusOf(err))
	}
	if _, err := env.conversations.Get(ctxFor(owner.ID), uuid.New()); apierr.StatusOf(err) != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", apierr.StatusOf(err))
	}
}

func TestConversationAppendMessage(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := env.conversations.AppendMessage(ctx, conv.ID, types.MessageTypeUser, types.ContentTypeText, "   ", nil); err == nil {
		t.Error("blank content accepted")
	}

	_, _, err = env.conversations.AppendMessage(ctx, conv.ID, types.MessageTypeUser, types.ContentTypeText, "Hello there", nil)
	if err != nil {
		t.Fatalf("append user: %v", err)
	}
	_, _, err = env.conversations.AppendMessage(ctx, conv.ID, types.MessageTypeAI, types.ContentTypeText, "Hi! How can I help?", nil)
	if err != nil {
		t.Fatalf("append ai: %v", err)
	}

	// Reload from the database: the document write must carry messages,
	// derived stats and the auto title.
	got, err := env.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Title != "New Conversation" {
		t.Errorf("append must not rewrite the title, got %q", got.Title)
	}
	if got.GenerateTitle() != "Hello there" {
		t.Errorf("derived title = %q", got.GenerateTitle())
	}
	if got.Stats.TotalMessages != 2 || got.Stats.UserMessages != 1 || got.Stats.AIMessages != 1 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.Stats.TokensUsed == 0 {
		t.Error("token estimate not computed")
	}
	if got.LastMessageAt.IsZero() {
		t.Error("last_message_at not set")
	}

	userStats, err := env.users.GetStats(ctx)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if userStats.Messages != 2 {
		t.Errorf("message counter = %d, want 2", userStats.Messages)
	}

	// Voice messages bump the voice counter too.
	meta := &types.MessageMetadata{VoiceDuration: 2.4, Language: "en-US", Confidence: 0.9}
	if _, _, err := env.conversations.AppendMessage(ctx, conv.ID, types.MessageTypeUser, types.ContentTypeVoice, "Play some music", meta); err != nil {
		t.Fatalf("append voice: %v", err)
	}
	userStats, err = env.users.GetStats(ctx)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if userStats.VoiceInteractions != 1 {
		t.Errorf("voice counter = %d, want 1", userStats.VoiceInteractions)
	}
}

func TestConversationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "Ephemeral", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	listStatuses := func() map[types.ConversationStatus]int {
		t.Helper()
		out := map[types.ConversationStatus]int{}
		for _, status := range []types.ConversationStatus{
			types.ConversationStatusActive,
			types.ConversationStatusArchived,
			types.ConversationStatusDeleted,
		} {
			page, err := env.conversations.List(ctx, repos.ListOptions{Status: status})
			if err != nil {
				t.Fatalf("list %s: %v", status, err)
			}
			out[status] = len(page.Conversations)
		}
		return out
	}

	if _, err := env.conversations.Archive(ctx, conv.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if counts := listStatuses(); counts[types.ConversationStatusArchived] != 1 || counts[types.ConversationStatusActive] != 0 {
		t.Errorf("after archive: %v", counts)
	}

	if _, err := env.conversations.Restore(ctx, conv.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if counts := listStatuses(); counts[types.ConversationStatusActive] != 1 {
		t.Errorf("after restore: %v", counts)
	}

	if _, err := env.conversations.SoftDelete(ctx, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if counts := listStatuses(); counts[types.ConversationStatusDeleted] != 1 || counts[types.ConversationStatusActive] != 0 {
		t.Errorf("after delete: %v", counts)
	}

	// Soft-deleted rows stay addressable by id.
	got, err := env.conversations.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got.Status != types.ConversationStatusDeleted {
		t.Errorf("status = %q, want deleted", got.Status)
	}

	favored, err := env.conversations.ToggleFavorite(ctx, conv.ID)
	if err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if !favored.IsFavorite {
		t.Error("favorite not set")
	}
}

func TestConversationSearch(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	planning, err := env.conversations.Create(ctx, "Trip planning", []string{"travel"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.conversations.AppendMessage(ctx, planning.ID, types.MessageTypeUser, types.ContentTypeText, "Book a hotel in Lisbon", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := env.conversations.Create(ctx, "Groceries", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	archived, err := env.conversations.Create(ctx, "Lisbon memories", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.conversations.Archive(ctx, archived.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	cases := []struct {
		name string
		term string
		want int
	}{
		{"title match is case-insensitive", "TRIP", 1},
		{"message content match", "lisbon", 1},
		{"tag match", "travel", 1},
		{"no match", "weather", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := env.conversations.Search(ctx, tc.term, 0, 20)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(page.Conversations) != tc.want {
				t.Errorf("matches = %d, want %d", len(page.Conversations), tc.want)
			}
		})
	}

	if _, err := env.conversations.Search(ctx, "   ", 0, 20); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("blank term status = %d, want 400", apierr.StatusOf(err))
	}
}

func TestConversationExport(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "river", "river@example.com", "hunter2hunter2")
	ctx := ctxFor(user.ID)

	conv, err := env.conversations.Create(ctx, "Notes", []string{"misc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.conversations.AppendMessage(ctx, conv.ID, types.MessageTypeUser, types.ContentTypeText, "Remember the milk", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	export, err := env.conversations.Export(ctx, conv.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if export.ID != conv.ID || export.ExportedBy != user.ID {
		t.Errorf("export identity mismatch: %+v", export)
	}
	if len(export.Messages) != 1 || export.Messages[0].Content != "Remember the milk" {
		t.Errorf("messages = %+v", export.Messages)
	}
	if len(export.Tags) != 1 || export.Tags[0] != "misc" {
		t.Errorf("tags = %v", export.Tags)
	}
	if export.Stats.TotalMessages != 1 {
		t.Errorf("stats = %+v", export.Stats)
	}
}
