package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/statekit/internal/items"
	"github.com/five82/statekit/internal/logtail"
)

// Messages

type tickMsg time.Time

// storeChangedMsg arrives after the store signals a change.
type storeChangedMsg struct{}

// detailChangedMsg arrives after the detail store signals a change.
type detailChangedMsg struct{}

// loadDoneMsg arrives when a blocking load returns.
type loadDoneMsg struct{}

// detailDoneMsg arrives when an item fetch returns.
type detailDoneMsg struct{ id int64 }

type saveDoneMsg struct {
	saved  int
	failed []error
}

func (m saveDoneMsg) summary() string {
	if len(m.failed) == 0 {
		return fmt.Sprintf("Saved %d item(s)", m.saved)
	}
	return fmt.Sprintf("Saved %d item(s), %d failed: %v", m.saved, len(m.failed), errors.Join(m.failed...))
}

type activityMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until a store signals, then delivers msg. A closed
// channel ends the subscription.
func waitForChange(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m Model) refreshCmd() tea.Cmd {
	if m.store == nil || m.fetcher == nil {
		return nil
	}
	store, fetcher, ctx, policy := m.store, m.fetcher, m.ctx, m.policy
	return func() tea.Msg {
		store.Refresh(ctx, policy, fetcher.FetchPage)
		return loadDoneMsg{}
	}
}

func (m Model) nextPageCmd() tea.Cmd {
	if m.store == nil || m.fetcher == nil {
		return nil
	}
	store, fetcher, ctx, policy := m.store, m.fetcher, m.ctx, m.policy
	return func() tea.Msg {
		store.LoadNextPage(ctx, policy, fetcher.FetchPage)
		return loadDoneMsg{}
	}
}

// detailCmd fetches the latest server copy of item id into the detail store.
// Each fetch replaces the one before it.
func (m Model) detailCmd(id int64) tea.Cmd {
	if m.detail == nil || m.fetcher == nil {
		return nil
	}
	detail, fetcher, ctx, policy := m.detail, m.fetcher, m.ctx, m.policy
	return func() tea.Msg {
		detail.Load(ctx, DetailTaskID, policy, func(ctx context.Context) (items.Item, error) {
			return fetcher.FetchItem(ctx, id)
		})
		return detailDoneMsg{id: id}
	}
}

// commit folds pending edits into the store, then saves the touched items
// in the background.
func (m *Model) commit() tea.Cmd {
	if m.store == nil {
		return nil
	}
	pending := m.store.PendingMutations()
	if len(pending) == 0 {
		m.statusLine = "Nothing to commit"
		return nil
	}
	keys := make([]int64, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m.store.Commit()
	m.sync()

	var toSave []items.Item
	for _, k := range keys {
		if it, ok := m.store.Model(k); ok {
			toSave = append(toSave, it)
		}
	}
	m.statusLine = fmt.Sprintf("Committed %d item(s), saving...", len(toSave))
	if m.fetcher == nil || len(toSave) == 0 {
		return nil
	}

	fetcher, ctx := m.fetcher, m.ctx
	return func() tea.Msg {
		var res saveDoneMsg
		for _, it := range toSave {
			saveCtx, cancel := context.WithTimeout(ctx, SaveTimeout)
			err := fetcher.SaveItem(saveCtx, it)
			cancel()
			if err != nil {
				res.failed = append(res.failed, fmt.Errorf("#%d: %w", it.ID, err))
				continue
			}
			res.saved++
		}
		return res
	}
}

func readActivityCmd(path string) tea.Cmd {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, ActivityLines)
		if err != nil {
			return activityMsg{err: err}
		}
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.Format()
		}
		return activityMsg{lines: lines}
	}
}

func (m *Model) setActivity(msg activityMsg) {
	if msg.err != nil {
		m.activity.SetContent("activity unavailable: " + msg.err.Error())
		return
	}
	atBottom := m.activity.AtBottom()
	m.activity.SetContent(strings.Join(msg.lines, "\n"))
	if atBottom || m.activity.YOffset == 0 {
		m.activity.GotoBottom()
	}
}
