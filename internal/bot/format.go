package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"household-planner/internal/model"
	"household-planner/internal/service"
)

const (
	iconDue      = "⏳"
	iconOverdue  = "⚠️"
	iconUrgent   = "❗"
	iconRotation = "🔁"
	iconNobody   = "🤷"
)

func formatNotification(n service.Notification, loc *time.Location) string {
	var b strings.Builder
	icon, head := iconDue, "Скоро срок"
	if n.Type == service.NotifyTaskOverdue {
		icon, head = iconOverdue, "Просрочено"
	}
	if n.Priority == service.PriorityHigh {
		head += " " + iconUrgent
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", icon, head))
	b.WriteString(escape(normalizeTitle(n.Title)))
	b.WriteByte('\n')
	b.WriteString(fmt.Sprintf("   ⏰ Срок: %s", n.DueDate.In(loc).Format("2006-01-02 15:04")))
	return b.String()
}

func formatAssignments(weekStart time.Time, assignments []model.WeeklyAssignment, titles, names map[string]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Дела на неделю с %s</b>\n", iconRotation, weekStart.Format("2006-01-02")))
	if len(assignments) == 0 {
		b.WriteString(fmt.Sprintf("%s Активных дел нет.", iconNobody))
		return b.String()
	}
	for _, a := range assignments {
		title, ok := titles[a.TemplateID]
		if !ok {
			title = a.TemplateID
		}
		name, ok := names[a.AssignedMemberID]
		if !ok || strings.TrimSpace(name) == "" {
			name = a.AssignedMemberID
		}
		b.WriteString(fmt.Sprintf("• %s — %s\n", escape(normalizeTitle(title)), escape(name)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
