package attendance

// The standard-task catalog: fixed, ordered, org-wide checklist items seeded
// onto every daily form. Labels/ids are stable; changing an id orphans the
// checkmarks of historical forms.
var standardCatalog = []TaskEntry{
	{ID: "std-standup", Label: "Attend the daily stand-up", Category: "communication", Frequency: "daily"},
	{ID: "std-inbox", Label: "Clear internal messages & mentions", Category: "communication", Frequency: "daily"},
	{ID: "std-board", Label: "Update your task board", Category: "planning", Frequency: "daily"},
	{ID: "std-plan", Label: "Write today's work plan", Category: "planning", Frequency: "daily"},
	{ID: "std-focus", Label: "Complete at least one planned deliverable", Category: "delivery", Frequency: "daily"},
	{ID: "std-review", Label: "Review a teammate's work", Category: "delivery", Frequency: "daily"},
	{ID: "std-blockers", Label: "Report blockers before noon", Category: "communication", Frequency: "daily"},
	{ID: "std-timesheet", Label: "Log entry & exit times", Category: "attendance", Frequency: "daily"},
	{ID: "std-docs", Label: "Document what you shipped", Category: "delivery", Frequency: "daily"},
	{ID: "std-eod", Label: "Post an end-of-day summary", Category: "communication", Frequency: "daily"},
}

// StandardCatalog returns a fresh copy of the catalog with both checkmarks
// unset, ready to seed a new DailyForm.
func StandardCatalog() []TaskEntry {
	tasks := make([]TaskEntry, len(standardCatalog))
	copy(tasks, standardCatalog)
	for i := range tasks {
		tasks[i].EmployeeChecked = false
		tasks[i].AdminChecked = false
		tasks[i].IsCompleted = false
	}
	return tasks
}
