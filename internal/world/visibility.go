package world

// Viewer is the acting identity a menu is rendered for.
type Viewer interface {
	Name() string
	HasPermission(perm string) bool
}

// Menu selects which navigator a world list is rendered for.
type Menu int

const (
	MenuPublic Menu = iota
	MenuPrivate
	MenuArchive
)

// VisibleIn reports whether rec belongs in menu for viewer. Hidden worlds are
// never listed. A world with a permission requirement is only listed for
// viewers holding it; a world whose data is not resident but is flagged
// loaded is skipped as stale.
func VisibleIn(menu Menu, viewer Viewer, rec Record, resident func(name string) bool) bool {
	if rec.Status == StatusHidden {
		return false
	}
	switch menu {
	case MenuPublic:
		if rec.Private || rec.Status == StatusArchive {
			return false
		}
	case MenuPrivate:
		if !rec.Private {
			return false
		}
	case MenuArchive:
		if rec.Status != StatusArchive {
			return false
		}
	}
	if !CanAccess(viewer, rec) {
		return false
	}
	if resident != nil && rec.Loaded && !resident(rec.Name) {
		return false
	}
	return true
}

// CanAccess applies the permission and private-world rules: the builder of a
// world can always access it.
func CanAccess(viewer Viewer, rec Record) bool {
	if rec.Builder.Known() && rec.Builder.Name == viewer.Name() {
		return true
	}
	if rec.Permission != NoPermission && rec.Permission != "" && !viewer.HasPermission(rec.Permission) {
		return false
	}
	return true
}

// Filter returns the records visible in menu, in the given order.
func Filter(menu Menu, viewer Viewer, records []Record, resident func(name string) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if VisibleIn(menu, viewer, rec, resident) {
			out = append(out, rec)
		}
	}
	return out
}
