package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdeck/internal/content"
	"linkdeck/internal/editor"
	"linkdeck/internal/models"
)

// memRemote is an in-memory editor.Remote that records every call.
type memRemote struct {
	mu       sync.Mutex
	links    []models.Link
	texts    []models.Text
	sections []models.Section
	nextID   int64
	fail     error
	calls    []string
	reorder  []content.Placement
	created  []models.Record
}

func newMemRemote() *memRemote {
	sid := int64(10)
	return &memRemote{
		nextID: 100,
		links: []models.Link{
			{Block: models.Block{ID: 1, Order: 0, Active: true}, Title: "Home", URL: "https://home.example"},
			{Block: models.Block{ID: 2, Order: 0, Active: true, SectionID: &sid}, Title: "Shop", URL: "https://shop.example"},
			{Block: models.Block{ID: 3, Order: 2, Active: false}, Title: "Old", URL: "https://old.example"},
		},
		sections: []models.Section{{ID: 10, Title: "Projects", Order: 1, Active: true}},
	}
}

func (m *memRemote) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.fail
}

func (m *memRemote) List(_ context.Context, kind models.Kind) ([]models.Record, error) {
	var out []models.Record
	switch kind {
	case models.KindLink:
		for i := range m.links {
			l := m.links[i]
			out = append(out, &l)
		}
	case models.KindText:
		for i := range m.texts {
			t := m.texts[i]
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *memRemote) Sections(context.Context) ([]models.Section, error) {
	return append([]models.Section(nil), m.sections...), nil
}

func (m *memRemote) Profile(context.Context) (*models.Profile, error) {
	return &models.Profile{Username: "demo"}, nil
}

func (m *memRemote) Create(_ context.Context, rec models.Record) (models.Record, error) {
	if err := m.record("create " + string(rec.Kind())); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.Placement().ID = m.nextID
	m.created = append(m.created, rec)
	return rec, nil
}

func (m *memRemote) Update(_ context.Context, kind models.Kind, id int64, _ map[string]any) (models.Record, error) {
	return nil, m.record("update " + content.RecordKey(kind, id))
}

func (m *memRemote) Delete(_ context.Context, kind models.Kind, id int64) error {
	return m.record("delete " + content.RecordKey(kind, id))
}

func (m *memRemote) Reorder(_ context.Context, p []content.Placement) error {
	if err := m.record("reorder"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reorder = p
	return nil
}

func (m *memRemote) CreateSection(_ context.Context, title string) (*models.Section, error) {
	if err := m.record("create section"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return &models.Section{ID: m.nextID, Title: title, Order: 3, Active: true}, nil
}

func (m *memRemote) UpdateSection(_ context.Context, id int64, _ map[string]any) (*models.Section, error) {
	return &models.Section{ID: id}, m.record("update " + content.Saved(id).Key())
}

func (m *memRemote) DeleteSection(_ context.Context, id int64) error {
	return m.record("delete " + content.Saved(id).Key())
}

func (m *memRemote) Ungroup(_ context.Context, id int64) error {
	return m.record("ungroup " + content.Saved(id).Key())
}

func (m *memRemote) UpdateProfile(_ context.Context, p *models.Profile) (*models.Profile, error) {
	return p, m.record("update profile")
}

func (m *memRemote) UpdateCustomization(context.Context, models.Customization) (*models.Profile, error) {
	return &models.Profile{}, m.record("update customization")
}

// run executes linkdeckctl against remote and returns stdout and stderr.
func run(t *testing.T, remote editor.Remote, args ...string) (string, string, error) {
	t.Helper()
	app := &App{connect: func(context.Context, *App) (editor.Remote, error) { return remote, nil }}
	cmd := newRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestItemsPrintsUnifiedTree(t *testing.T) {
	out, _, err := run(t, newMemRemote(), "items")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "Home")
	assert.Contains(t, lines[0], "link-1")
	assert.Contains(t, out, "section Projects  section-10")
	assert.Contains(t, out, "└─ link    Shop  link-2")
	assert.Contains(t, out, "Old (hidden)")
	assert.Less(t, strings.Index(out, "section-10"), strings.Index(out, "link-3"))
}

func TestItemsEmpty(t *testing.T) {
	out, _, err := run(t, &memRemote{}, "items")
	require.NoError(t, err)
	assert.Equal(t, "(no content)\n", out)
}

func TestMoveIntoSection(t *testing.T) {
	remote := newMemRemote()
	out, _, err := run(t, remote, "move", "link-1", "link-2")
	require.NoError(t, err)

	assert.Equal(t, []string{"reorder"}, remote.calls)
	sid := int64(10)
	assert.Contains(t, remote.reorder, content.Placement{Kind: content.KindLink, ID: 1, SectionID: &sid})
	assert.Contains(t, out, "├─ link    Home  link-1")
}

func TestMoveUnknownKey(t *testing.T) {
	remote := newMemRemote()
	_, stderr, err := run(t, remote, "move", "link-99", "link-1")
	require.ErrorIs(t, err, content.ErrUnknownKey)
	assert.Contains(t, stderr, "link-99")
	assert.Empty(t, remote.calls)
}

func TestMoveRejectedByServer(t *testing.T) {
	remote := newMemRemote()
	remote.fail = errors.New("boom")
	_, stderr, err := run(t, remote, "move", "link-1", "section-10")
	require.Error(t, err)
	assert.Contains(t, stderr, "boom")
}

func TestToggle(t *testing.T) {
	remote := newMemRemote()
	out, _, err := run(t, remote, "toggle", "link-3")
	require.NoError(t, err)
	assert.Equal(t, "link-3 is now visible\n", out)
	assert.Equal(t, []string{"update link-3"}, remote.calls)
}

func TestArchiveDeleteUngroup(t *testing.T) {
	tests := []struct {
		args []string
		call string
	}{
		{[]string{"archive", "link-1"}, "update link-1"},
		{[]string{"delete", "section-10"}, "delete section-10"},
		{[]string{"ungroup", "section-10"}, "ungroup section-10"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			remote := newMemRemote()
			_, _, err := run(t, remote, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.call}, remote.calls)
		})
	}
}

func TestAddLinkToSection(t *testing.T) {
	remote := newMemRemote()
	out, _, err := run(t, remote, "add", "link", "--title", "Blog", "--url", "https://blog.example", "--section", "section-10")
	require.NoError(t, err)
	assert.Equal(t, "added link-101\n", out)

	require.Len(t, remote.created, 1)
	l := remote.created[0].(*models.Link)
	require.NotNil(t, l.SectionID)
	assert.Equal(t, int64(10), *l.SectionID)
	assert.True(t, l.Active)
}

func TestAddLinkValidatesLocally(t *testing.T) {
	remote := newMemRemote()
	_, _, err := run(t, remote, "add", "link", "--title", "", "--url", "https://x.example")
	var verr *editor.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, remote.calls)
}

func TestAddLinkRejectsBadSectionKey(t *testing.T) {
	remote := newMemRemote()
	_, stderr, err := run(t, remote, "add", "link", "--title", "x", "--url", "https://x.example", "--section", "link-1")
	require.Error(t, err)
	assert.Contains(t, stderr, "not a saved section key")
}

func TestAddTextAndSection(t *testing.T) {
	remote := newMemRemote()
	out, _, err := run(t, remote, "add", "text", "--title", "About", "--description", "Hello *there*")
	require.NoError(t, err)
	assert.Equal(t, "added text-101\n", out)

	out, _, err = run(t, remote, "add", "section", "--title", "Music")
	require.NoError(t, err)
	assert.Equal(t, "added section-102\n", out)
}

func TestPreviewNeedsServer(t *testing.T) {
	_, _, err := run(t, newMemRemote(), "preview")
	require.Error(t, err)
}

func TestDialRequiresCredentials(t *testing.T) {
	_, err := dial(context.Background(), &App{URL: "http://localhost:8080"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials required")
}
