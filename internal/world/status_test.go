package world

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Stages(t *testing.T) {
	want := map[Status]int{
		StatusNotStarted:     1,
		StatusInProgress:     2,
		StatusAlmostFinished: 3,
		StatusFinished:       4,
		StatusArchive:        5,
		StatusHidden:         6,
	}
	for s, stage := range want {
		assert.Equal(t, stage, s.Stage(), s.String())
	}

	all := AllStatuses()
	require.Len(t, all, 6)
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Stage() < all[j].Stage() }))
}

func TestStatus_Permission(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusNotStarted, "buildsystem.setstatus.notstarted"},
		{StatusInProgress, "buildsystem.setstatus.inprogress"},
		{StatusAlmostFinished, "buildsystem.setstatus.almostfinished"},
		{StatusFinished, "buildsystem.setstatus.finished"},
		{StatusArchive, "buildsystem.setstatus.archive"},
		{StatusHidden, "buildsystem.setstatus.hidden"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Permission())
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "NOT_STARTED", want: StatusNotStarted},
		{in: "almostfinished", want: StatusAlmostFinished},
		{in: "in-progress", want: StatusInProgress},
		{in: " Archive ", want: StatusArchive},
		{in: "done", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortByStage_IsStable(t *testing.T) {
	records := []Record{
		{Name: "b", Status: StatusFinished},
		{Name: "a", Status: StatusNotStarted},
		{Name: "c", Status: StatusFinished},
		{Name: "d", Status: StatusHidden},
		{Name: "e", Status: StatusNotStarted},
	}
	SortByStage(records)

	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.Name)
	}
	assert.Equal(t, []string{"a", "e", "b", "c", "d"}, got)
}

func TestParseGenerator(t *testing.T) {
	g, err := ParseGenerator("flat")
	require.NoError(t, err)
	assert.Equal(t, GeneratorFlat, g)

	_, err = ParseGenerator("amplified")
	assert.ErrorIs(t, err, ErrInvalidGenerator)
}
