package world

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testViewer struct {
	name  string
	perms map[string]bool
}

func (v testViewer) Name() string                   { return v.name }
func (v testViewer) HasPermission(perm string) bool { return v.perms[perm] }

func TestVisibleIn(t *testing.T) {
	alice := Builder{ID: uuid.New(), Name: "Alice"}
	guest := testViewer{name: "Guest"}
	staff := testViewer{name: "Staff", perms: map[string]bool{"build.team": true}}
	owner := testViewer{name: "Alice"}

	tests := []struct {
		name   string
		menu   Menu
		viewer Viewer
		rec    Record
		want   bool
	}{
		{"public world in public menu", MenuPublic, guest, Record{Status: StatusInProgress, Permission: NoPermission}, true},
		{"private world not in public menu", MenuPublic, guest, Record{Private: true, Permission: NoPermission}, false},
		{"hidden never shown", MenuPublic, staff, Record{Status: StatusHidden, Permission: NoPermission}, false},
		{"archive has its own menu", MenuPublic, guest, Record{Status: StatusArchive, Permission: NoPermission}, false},
		{"archive menu", MenuArchive, guest, Record{Status: StatusArchive, Permission: NoPermission}, true},
		{"private menu shows unrestricted private world", MenuPrivate, guest, Record{Private: true, Permission: NoPermission}, true},
		{"private world with permission hidden from guest", MenuPrivate, guest, Record{Private: true, Permission: "build.team"}, false},
		{"permission holder sees it", MenuPrivate, staff, Record{Private: true, Permission: "build.team"}, true},
		{"builder always sees own world", MenuPrivate, owner, Record{Private: true, Permission: "build.team", Builder: alice}, true},
		{"stale loaded flag skipped", MenuPublic, guest, Record{Name: "gone", Loaded: true, Permission: NoPermission}, false},
	}
	resident := func(string) bool { return false }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec.Status = max(tt.rec.Status, StatusNotStarted)
			assert.Equal(t, tt.want, VisibleIn(tt.menu, tt.viewer, tt.rec, resident))
		})
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	records := []Record{
		{Name: "c", Status: StatusNotStarted, Permission: NoPermission},
		{Name: "a", Status: StatusHidden, Permission: NoPermission},
		{Name: "b", Status: StatusFinished, Permission: NoPermission},
	}
	got := Filter(MenuPublic, testViewer{name: "x"}, records, nil)
	assert.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}
