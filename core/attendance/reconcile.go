package attendance

// reconcileEntries derives the completion flag of every entry:
// completed means checked by both the employee and an admin. Everything else
// is left untouched. Idempotent.
func reconcileEntries(entries []TaskEntry) {
	for i := range entries {
		entries[i].IsCompleted = entries[i].EmployeeChecked && entries[i].AdminChecked
	}
}

func reconcileTags(tags []TagEntry) {
	for i := range tags {
		tags[i].IsCompleted = tags[i].EmployeeChecked && tags[i].AdminChecked
	}
}

// Reconcile recomputes the derived completion flags of all tasks & tags on
// the form. A stored IsCompleted value is never trusted: every path that
// serves or persists a form runs this first.
func Reconcile(f *DailyForm) {
	reconcileEntries(f.StandardTasks)
	reconcileEntries(f.CustomTasks)
	reconcileTags(f.CustomTags)
}
