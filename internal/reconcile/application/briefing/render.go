package briefing

import (
	"errors"

	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

var priorityColors = map[int]string{
	4: "#d1453b",
	3: "#eb8909",
	2: "#246fe0",
}

func taskAttachments(tasks []TimedTask) []notification.Attachment {
	if len(tasks) == 0 {
		return nil
	}
	attachments := make([]notification.Attachment, 0, len(tasks))
	for _, t := range tasks {
		title := t.Content
		if t.Project != "" {
			title = "[" + t.Project + "] " + t.Content
		}
		attachments = append(attachments, notification.Attachment{
			Fallback: t.Time + " " + title,
			Color:    priorityColors[t.Priority],
			Title:    title,
			Fields: []notification.Field{
				{Title: "Time", Value: t.Time, Short: true},
			},
		})
	}
	return attachments
}

func isNameNotFound(err error) bool {
	return errors.Is(err, task.ErrNameNotFound)
}
