package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tapcraft-io/kubesync/internal/apimanager"
	"github.com/tapcraft-io/kubesync/internal/kinds"
	"github.com/tapcraft-io/kubesync/pkg/types"
)

// maxDetailEvents caps the events listed under an object.
const maxDetailEvents = 10

// View renders the entire UI
func (m Model) View() string {
	if m.quitting {
		return "Bye from kubesync!\n"
	}

	if m.err != nil || m.mode == types.ModeError {
		return m.renderError()
	}

	if len(m.stores) == 0 {
		return m.renderEmpty()
	}

	switch m.mode {
	case types.ModePickingKind:
		return m.renderPickingKindMode()
	case types.ModeViewingDetail:
		return m.renderViewingDetailMode()
	default:
		return m.renderBrowsingMode()
	}
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString(RenderTitle(m.context, describeSelection(m.mux.Selector().Selected())))
	b.WriteString("\n")
	b.WriteString(RenderTabs(m.kindNames(), m.kindIdx))
	b.WriteString("\n\n")
	return b.String()
}

// renderError renders an error screen
func (m Model) renderError() string {
	var b strings.Builder

	b.WriteString(RenderTitle(m.context, "-"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(RenderError("Error: " + m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(RenderHelp("[Enter] to continue  [Ctrl+C] quit"))

	return b.String()
}

func (m Model) renderEmpty() string {
	var b strings.Builder
	b.WriteString(RenderTitle(m.context, "-"))
	b.WriteString("\n\n")
	b.WriteString(RenderWarning("No kinds are registered"))
	b.WriteString("\n\n")
	b.WriteString(RenderHelp("[Ctrl+C] quit"))
	return b.String()
}

// renderStatusLine reports loading progress, failures and the last message.
func (m Model) renderStatusLine() string {
	s := m.current()
	switch {
	case m.lastFailure != nil || s.FailedLoading():
		msg := "Loading " + s.Descriptor().Kind + " failed"
		if m.lastFailure != nil {
			msg += ": " + m.lastFailure.Error()
		}
		return RenderWarning(msg + "  [r] retry")
	case s.Loading():
		return m.spinner.View() + " Loading " + s.Descriptor().Kind + "..."
	case m.statusMsg != "":
		return RenderInfo(m.statusMsg)
	case s.Loaded():
		return RenderSuccess(fmt.Sprintf("%d %s", len(m.resourceList.Items()), s.Descriptor().Kind))
	}
	return ""
}

// renderBrowsingMode renders the object list of the active kind
func (m Model) renderBrowsingMode() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString(m.resourceList.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(RenderHelp(strings.Join([]string{
		"[Tab] next kind",
		"[/] pick kind",
		"[n] next namespace",
		"[a] all namespaces",
		"[Enter] details",
		"[q] quit",
	}, "  ")))

	return b.String()
}

// renderPickingKindMode renders the fuzzy kind picker
func (m Model) renderPickingKindMode() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())

	var content strings.Builder
	content.WriteString(RenderPrompt())
	content.WriteString(m.kindInput.View())
	content.WriteString("\n\n")
	names := m.kindNames()
	if len(m.matches) == 0 {
		content.WriteString(dimStyle.Render("  no matches"))
	}
	for i, idx := range m.matches {
		content.WriteString(RenderPickerItem(names[idx], i == m.matchIdx))
		content.WriteString("\n")
	}
	b.WriteString(RenderBox("Kind", content.String()))
	b.WriteString("\n\n")
	b.WriteString(RenderHelp("[↑↓] navigate  [Enter] select  [Esc] cancel"))

	return b.String()
}

// renderViewingDetailMode renders one object with its relations
func (m Model) renderViewingDetailMode() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.lastFailure != nil {
		b.WriteString(RenderWarning(m.lastFailure.Error()))
		b.WriteString("\n")
	}
	b.WriteString(RenderHelp("[↑↓] scroll  [Esc] back  [Ctrl+C] quit"))

	return b.String()
}

// renderDetail renders the detail page of obj: metadata, owners resolved
// through the manager, containers and recent events.
func (m Model) renderDetail(obj *unstructured.Unstructured) string {
	var b strings.Builder

	b.WriteString(highlightStyle.Render(obj.GetKind() + " " + obj.GetName()))
	b.WriteString("\n\n")
	field := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(padRight(name+":", 18))
		b.WriteString(value)
		b.WriteString("\n")
	}
	field("Namespace", obj.GetNamespace())
	field("API version", obj.GetAPIVersion())
	field("UID", string(obj.GetUID()))
	field("Resource version", obj.GetResourceVersion())
	field("Created", formatAge(obj.GetCreationTimestamp()))
	field("Labels", formatMap(obj.GetLabels()))

	if owners := obj.GetOwnerReferences(); len(owners) > 0 {
		b.WriteString("\n")
		b.WriteString(highlightStyle.Render("Owners"))
		b.WriteString("\n")
		for _, ref := range owners {
			b.WriteString(m.renderLink(apimanager.FromOwnerReference(ref), obj))
			b.WriteString("\n")
		}
	}

	if containers := kinds.Containers(obj); len(containers) > 0 {
		b.WriteString("\n")
		b.WriteString(highlightStyle.Render("Containers"))
		b.WriteString("\n")
		for _, c := range containers {
			b.WriteString("  " + c + "\n")
		}
	}

	if m.events != nil {
		b.WriteString("\n")
		b.WriteString(highlightStyle.Render("Events"))
		b.WriteString("\n")
		events := kinds.Events(m.events).For(obj)
		if len(events) == 0 {
			b.WriteString(dimStyle.Render("  none"))
			b.WriteString("\n")
		}
		for i, ev := range events {
			if i == maxDetailEvents {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(events)-i)))
				b.WriteString("\n")
				break
			}
			line := fmt.Sprintf("%s %-8s %-20s %s", RenderStatus(ev.Type), ev.Type, truncate(ev.Reason, 20), ev.Message)
			if ev.Count > 1 {
				line += fmt.Sprintf(" (x%d)", ev.Count)
			}
			b.WriteString("  " + wrapText(line, GetMaxWidth(m.width)-4) + "\n")
		}
	}

	return b.String()
}

// renderLink renders a reference with its resolved path and whether the
// target is in a loaded store.
func (m Model) renderLink(ref apimanager.Reference, relativeTo metav1.Object) string {
	link := m.manager.LookupLink(ref, relativeTo)
	state := dimStyle.Render("not loaded")
	if m.manager.LookupObject(ref, relativeTo) != nil {
		state = successStyle.Render("cached")
	}
	return fmt.Sprintf("  %s %s  %s  %s", ref.Kind, ref.Name, dimStyle.Render(link), state)
}

// wrapText wraps text to fit within a given width
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len()+len(word)+1 > width {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
		}

		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n    ")
}

// truncate truncates a string to a maximum length
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	if max <= 3 {
		return s[:max]
	}

	return s[:max-3] + "..."
}

// padRight pads a string to the right
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatAge renders a creation timestamp with its age.
func formatAge(t metav1.Time) string {
	if t.IsZero() {
		return ""
	}
	age := time.Since(t.Time).Round(time.Second)
	return fmt.Sprintf("%s (%s ago)", t.Format(time.RFC3339), age)
}

func formatMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
