package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/buildsystem/server/internal/identity"
	"github.com/buildsystem/server/internal/system"
	"github.com/buildsystem/server/internal/world"
	"go.uber.org/zap"
)

// HandleCommand processes one console or chat command line such as
// "worlds import spawn -g flat". Returns false if the line is not a worlds
// command.
func HandleCommand(sender Sender, line string, deps *Deps) bool {
	parts := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(parts) == 0 || !strings.EqualFold(parts[0], "worlds") {
		return false
	}
	if len(parts) == 1 {
		deps.msg(sender, "unknown_command")
		return true
	}

	sub := strings.ToLower(parts[1])
	args := parts[2:]

	switch sub {
	case "import":
		cmdImport(sender, args, deps)
	case "importall":
		cmdImportAll(sender, args, deps)
	case "unimport":
		cmdUnimport(sender, args, deps)
	case "setstatus":
		cmdSetStatus(sender, args, deps)
	case "modify":
		cmdModify(sender, args, deps)
	case "list":
		cmdList(sender, args, deps)
	case "info":
		cmdInfo(sender, args, deps)
	case "history":
		cmdHistory(sender, args, deps)
	case "statuses":
		cmdStatuses(sender, deps)
	default:
		deps.msg(sender, "unknown_command")
	}
	return true
}

// parseFlags splits args into positionals and "-x value" / "-x" flags.
// valued lists the flags that take a value. ok is false for an unknown flag
// or a valued flag with no value.
func parseFlags(args []string, valued, bare string) (pos []string, flags map[string]string, ok bool) {
	flags = make(map[string]string)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) != 2 || a[0] != '-' {
			pos = append(pos, a)
			continue
		}
		f := a[1:]
		switch {
		case strings.Contains(valued, f):
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return nil, nil, false
			}
			flags[f] = args[i+1]
			i++
		case strings.Contains(bare, f):
			flags[f] = ""
		default:
			return nil, nil, false
		}
	}
	return pos, flags, true
}

func cmdImport(sender Sender, args []string, deps *Deps) {
	if !sender.HasPermission(PermImport) {
		deps.msg(sender, "no_permissions")
		return
	}
	pos, flags, ok := parseFlags(args, "gc", "")
	if !ok || len(pos) != 1 {
		deps.msg(sender, "worlds_import_usage")
		return
	}
	name := pos[0]
	opts := system.ImportOptions{Generator: flags["g"], Creator: flags["c"]}

	deps.msg(sender, "worlds_import_started", "%world%", name)
	deps.async(func() {
		_, err := deps.Importer.ImportOne(context.Background(), name, opts)
		switch {
		case err == nil:
			deps.msg(sender, "worlds_import_finished", "%world%", name)
		case errors.Is(err, system.ErrAlreadyImported):
			deps.msg(sender, "worlds_import_world_is_imported", "%world%", name)
		case errors.Is(err, system.ErrNotAWorld):
			deps.msg(sender, "worlds_import_unknown_world", "%world%", name)
		case errors.Is(err, identity.ErrIdentityNotFound):
			deps.msg(sender, "worlds_import_player_not_found", "%player%", opts.Creator)
		default:
			deps.Log.Error("import world", zap.String("world", name), zap.Error(err))
			deps.msg(sender, "command_failed", "%reason%", err.Error())
		}
	})
}

func cmdImportAll(sender Sender, args []string, deps *Deps) {
	if !sender.HasPermission(PermImportAll) {
		deps.msg(sender, "no_permissions")
		return
	}
	pos, flags, ok := parseFlags(args, "gc", "")
	if !ok || len(pos) != 0 {
		deps.msg(sender, "worlds_importall_usage")
		return
	}
	if deps.Importer.Running() {
		deps.msg(sender, "worlds_importall_already_started")
		return
	}
	opts := system.ImportOptions{Generator: flags["g"], Creator: flags["c"]}

	deps.async(func() {
		res, err := deps.Importer.ImportAll(context.Background(), opts)
		switch {
		case errors.Is(err, system.ErrBulkImportRunning):
			deps.msg(sender, "worlds_importall_already_started")
			return
		case err != nil:
			deps.Log.Error("import all worlds", zap.Error(err))
			deps.msg(sender, "command_failed", "%reason%", err.Error())
			return
		}
		reportBulk(sender, res, opts, deps)
	})
}

func reportBulk(sender Sender, res *system.BulkResult, opts system.ImportOptions, deps *Deps) {
	if res.Candidates == 0 {
		deps.msg(sender, "worlds_importall_no_worlds")
		return
	}
	creatorMissing := false
	for _, f := range res.Failed {
		if errors.Is(f.Err, identity.ErrIdentityNotFound) {
			creatorMissing = true
			break
		}
	}
	if creatorMissing {
		deps.msg(sender, "worlds_importall_player_not_found", "%player%", opts.Creator)
	}

	deps.msg(sender, "worlds_importall_finished",
		"%imported%", strconv.Itoa(len(res.Imported)),
		"%amount%", strconv.Itoa(res.Candidates),
		"%time%", res.Elapsed.Round(time.Millisecond).String())
	if len(res.Failed) == 0 {
		return
	}
	// All failures share one line.
	failed := make([]string, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, f.Name+" ("+failureReason(f.Err, deps)+")")
	}
	deps.msg(sender, "worlds_importall_failed",
		"%failed%", strconv.Itoa(len(res.Failed)),
		"%worlds%", strings.Join(failed, ", "))
}

func failureReason(err error, deps *Deps) string {
	switch {
	case errors.Is(err, system.ErrAlreadyImported):
		return deps.Messages.Get("reason_already_imported")
	case errors.Is(err, system.ErrNotAWorld):
		return deps.Messages.Get("reason_not_a_world")
	case errors.Is(err, identity.ErrIdentityNotFound):
		return deps.Messages.Get("reason_player_not_found")
	}
	return err.Error()
}

func cmdUnimport(sender Sender, args []string, deps *Deps) {
	if !sender.HasPermission(PermUnimport) {
		deps.msg(sender, "no_permissions")
		return
	}
	pos, flags, ok := parseFlags(args, "", "d")
	if !ok || len(pos) != 1 {
		deps.msg(sender, "worlds_unimport_usage")
		return
	}
	name := pos[0]
	_, deleteData := flags["d"]

	run := func() {
		err := deps.Unimporter.Unimport(context.Background(), name, deleteData)
		switch {
		case err == nil:
			deps.msg(sender, "worlds_unimport_finished", "%world%", name)
		case errors.Is(err, world.ErrUnknownWorld):
			deps.msg(sender, "worlds_unimport_unknown_world", "%world%", name)
		case errors.Is(err, system.ErrDataDeletion):
			deps.msg(sender, "worlds_unimport_delete_failed", "%world%", name)
		default:
			deps.Log.Error("unimport world", zap.String("world", name), zap.Error(err))
			deps.msg(sender, "command_failed", "%reason%", err.Error())
		}
	}
	// Removing a world folder can take a while.
	if deleteData {
		deps.async(run)
		return
	}
	run()
}

func cmdSetStatus(sender Sender, args []string, deps *Deps) {
	if len(args) != 2 {
		deps.msg(sender, "worlds_setstatus_usage")
		return
	}
	w := deps.Registry.Get(args[0])
	if w == nil {
		deps.msg(sender, "worlds_setstatus_unknown_world", "%world%", args[0])
		return
	}
	s, err := world.ParseStatus(args[1])
	if err != nil {
		deps.msg(sender, "worlds_setstatus_unknown_status", "%status%", args[1])
		return
	}
	if !sender.HasPermission(deps.Status.RequiredPermission(s)) {
		deps.msg(sender, "no_permissions")
		return
	}
	deps.Status.SetStatus(w, s)
	deps.msg(sender, "worlds_setstatus_set", "%world%", w.Name(), "%status%", deps.Messages.Get(s.NameKey()))
}

// cmdModify reports a block change in a world, as the host does for every
// block placed or broken.
func cmdModify(sender Sender, args []string, deps *Deps) {
	if len(args) != 1 {
		deps.msg(sender, "worlds_modify_usage")
		return
	}
	w := deps.Registry.Get(args[0])
	if w == nil {
		deps.msg(sender, "worlds_setstatus_unknown_world", "%world%", args[0])
		return
	}
	if !deps.Status.OnBlockModified(w) {
		deps.msg(sender, "worlds_archived", "%world%", w.Name())
		return
	}
	deps.msg(sender, "worlds_modified", "%world%", w.Name(), "%status%", deps.Messages.Get(w.Status().NameKey()))
}

func cmdList(sender Sender, args []string, deps *Deps) {
	menu := world.MenuPublic
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "private":
			menu = world.MenuPrivate
		case "archive":
			menu = world.MenuArchive
		default:
			deps.msg(sender, "worlds_list_usage")
			return
		}
	}
	var resident func(string) bool
	if deps.Host != nil {
		resident = deps.Host.IsWorldResident
	}
	recs := world.Filter(menu, sender, deps.Registry.Records(), resident)
	if len(recs) == 0 {
		deps.msg(sender, "worlds_list_empty")
		return
	}
	world.SortByStage(recs)
	deps.msg(sender, "worlds_list_header", "%amount%", strconv.Itoa(len(recs)))
	for _, r := range recs {
		sender.SendMessage(deps.Messages.Get("worlds_list_entry",
			"%world%", r.Name,
			"%status%", deps.Messages.Get(r.Status.NameKey()),
			"%builder%", r.Builder.Name))
	}
}

func cmdInfo(sender Sender, args []string, deps *Deps) {
	if len(args) != 1 {
		deps.msg(sender, "worlds_info_usage")
		return
	}
	w := deps.Registry.Get(args[0])
	if w == nil {
		deps.msg(sender, "worlds_setstatus_unknown_world", "%world%", args[0])
		return
	}
	rec := w.Snapshot()
	if !world.CanAccess(sender, rec) {
		deps.msg(sender, "no_permissions")
		return
	}

	deps.async(func() {
		builder := rec.Builder.Name
		// Show the builder's current name if they have been renamed since.
		if rec.Builder.Known() && deps.Identity != nil {
			if name, ok := deps.Identity.ResolveName(context.Background(), rec.Builder.ID); ok {
				builder = name
			}
		}
		deps.msg(sender, "worlds_info",
			"%world%", rec.Name,
			"%status%", deps.Messages.Get(rec.Status.NameKey()),
			"%builder%", builder,
			"%generator%", string(rec.Generator),
			"%permission%", rec.Permission,
			"%private%", strconv.FormatBool(rec.Private),
			"%loaded%", strconv.FormatBool(rec.Loaded),
			"%created%", rec.CreatedAt.Format(time.DateTime))
	})
}

const historyLimit = 10

func cmdHistory(sender Sender, args []string, deps *Deps) {
	if len(args) != 1 || deps.History == nil {
		deps.msg(sender, "worlds_history_usage")
		return
	}
	name := args[0]
	if w := deps.Registry.Get(name); w != nil && !world.CanAccess(sender, w.Snapshot()) {
		deps.msg(sender, "no_permissions")
		return
	}

	deps.async(func() {
		entries, err := deps.History.Recent(context.Background(), name, historyLimit)
		if err != nil {
			deps.Log.Error("read world history", zap.String("world", name), zap.Error(err))
			deps.msg(sender, "command_failed", "%reason%", err.Error())
			return
		}
		if len(entries) == 0 {
			deps.msg(sender, "worlds_history_empty", "%world%", name)
			return
		}
		deps.msg(sender, "worlds_history_header", "%world%", name)
		for _, e := range entries {
			sender.SendMessage(deps.Messages.Get("worlds_history_entry", "%kind%", e.Kind, "%detail%", e.Detail))
		}
	})
}

func cmdStatuses(sender Sender, deps *Deps) {
	for _, s := range world.AllStatuses() {
		mark := " "
		if sender.HasPermission(s.Permission()) {
			mark = "*"
		}
		sender.SendMessage(mark + " " + strconv.Itoa(s.Stage()) + ". " + s.String() + " (" + deps.Messages.Get(s.NameKey()) + ")")
	}
}
