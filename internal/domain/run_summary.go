package domain

// RunSummary aggregates the counters of one engine run.
// Ephemeral: returned to the trigger and logged, never persisted.
type RunSummary struct {
	ProcessedUsers    int `json:"processedUsers"`
	ProcessedItems    int `json:"processedItems"`
	NotificationsSent int `json:"notificationsSent"`
	Errors            int `json:"errors"`
}

// Add returns the field-wise sum of s and other.
func (s RunSummary) Add(other RunSummary) RunSummary {
	return RunSummary{
		ProcessedUsers:    s.ProcessedUsers + other.ProcessedUsers,
		ProcessedItems:    s.ProcessedItems + other.ProcessedItems,
		NotificationsSent: s.NotificationsSent + other.NotificationsSent,
		Errors:            s.Errors + other.Errors,
	}
}
