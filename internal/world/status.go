package world

import (
	"fmt"
	"sort"
	"strings"
)

// Status is the building progress of a world. The numeric value is the stage
// and is part of the persisted/sorting contract: never reorder.
type Status int

const (
	StatusNotStarted     Status = iota + 1 // 1: nothing modified yet
	StatusInProgress                       // 2: set automatically on first block change
	StatusAlmostFinished                   // 3
	StatusFinished                         // 4
	StatusArchive                          // 5: block changes forbidden
	StatusHidden                           // 6: not shown in the navigator
)

type statusInfo struct {
	name    string // upper snake, persisted form
	nameKey string // message table key for the display name
}

var statusTable = map[Status]statusInfo{
	StatusNotStarted:     {name: "NOT_STARTED", nameKey: "status_not_started"},
	StatusInProgress:     {name: "IN_PROGRESS", nameKey: "status_in_progress"},
	StatusAlmostFinished: {name: "ALMOST_FINISHED", nameKey: "status_almost_finished"},
	StatusFinished:       {name: "FINISHED", nameKey: "status_finished"},
	StatusArchive:        {name: "ARCHIVE", nameKey: "status_archive"},
	StatusHidden:         {name: "HIDDEN", nameKey: "status_hidden"},
}

// AllStatuses returns every status in stage order.
func AllStatuses() []Status {
	return []Status{
		StatusNotStarted,
		StatusInProgress,
		StatusAlmostFinished,
		StatusFinished,
		StatusArchive,
		StatusHidden,
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// Stage returns the ordering value; higher means further in development.
func (s Status) Stage() int { return int(s) }

func (s Status) String() string {
	if info, ok := statusTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// NameKey returns the message key of the status display name.
func (s Status) NameKey() string {
	return statusTable[s].nameKey
}

// Permission returns the permission needed to set a world to s, e.g.
// "buildsystem.setstatus.almostfinished".
func (s Status) Permission() string {
	return "buildsystem.setstatus." + strings.ReplaceAll(strings.ToLower(s.String()), "_", "")
}

// ParseStatus accepts the persisted form ("IN_PROGRESS") as well as the
// permission form ("inprogress"), case-insensitively.
func ParseStatus(token string) (Status, error) {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(token)), "-", "_")
	for _, s := range AllStatuses() {
		name := s.String()
		if norm == name || norm == strings.ReplaceAll(name, "_", "") {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", token)
}

// SortByStage orders records by status stage, keeping the incoming order for
// worlds in the same stage.
func SortByStage(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Status.Stage() < records[j].Status.Stage()
	})
}
